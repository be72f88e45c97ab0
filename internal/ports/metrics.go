package ports

// Metrics defines the counters the authorization flow reports. A no-op
// implementation is acceptable wherever measurement is not wired up.
type Metrics interface {
	// FlowBegun counts authorization flows started.
	FlowBegun()
	// FlowCompleted counts flows that ended with a persisted session.
	FlowCompleted()
	// FlowFailed counts failed flows by failure kind (validation, csrf,
	// provider, transient, configuration, internal).
	FlowFailed(kind string)
	// StateTierHit counts state lookups satisfied per tier (persistent,
	// memory, cookie).
	StateTierHit(tier string)
	// StateMiss counts lookups no tier could satisfy.
	StateMiss()
	// StateTier1Error counts failed operations against the persistent tier.
	StateTier1Error()
}
