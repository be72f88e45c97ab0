package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the authorization flow counters on a Prometheus registry.
type Metrics struct {
	flowsBegun       prometheus.Counter
	flowsCompleted   prometheus.Counter
	flowFailures     *prometheus.CounterVec
	stateTierHits    *prometheus.CounterVec
	stateMisses      prometheus.Counter
	stateTier1Errors prometheus.Counter
}

// New registers the flow counters with reg and returns the set. The server
// passes prometheus.DefaultRegisterer, tests pass a fresh registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flowsBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_flows_begun_total",
			Help: "Authorization flows started.",
		}),
		flowsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_flows_completed_total",
			Help: "Authorization flows that ended with a persisted session.",
		}),
		flowFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_flow_failures_total",
			Help: "Authorization flows that failed, by failure kind.",
		}, []string{"kind"}),
		stateTierHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_state_tier_hits_total",
			Help: "State lookups satisfied, by tier.",
		}, []string{"tier"}),
		stateMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_state_misses_total",
			Help: "State lookups no tier could satisfy.",
		}),
		stateTier1Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oauth_state_tier1_errors_total",
			Help: "Failed operations against the persistent state tier.",
		}),
	}

	reg.MustRegister(
		m.flowsBegun,
		m.flowsCompleted,
		m.flowFailures,
		m.stateTierHits,
		m.stateMisses,
		m.stateTier1Errors,
	)

	return m
}

func (m *Metrics) FlowBegun()               { m.flowsBegun.Inc() }
func (m *Metrics) FlowCompleted()           { m.flowsCompleted.Inc() }
func (m *Metrics) FlowFailed(kind string)   { m.flowFailures.WithLabelValues(kind).Inc() }
func (m *Metrics) StateTierHit(tier string) { m.stateTierHits.WithLabelValues(tier).Inc() }
func (m *Metrics) StateMiss()               { m.stateMisses.Inc() }
func (m *Metrics) StateTier1Error()         { m.stateTier1Errors.Inc() }
