package ports

import "time"

// StateCache defines the interface for the in-process nonce cache that backs
// the durable state repository. It is process-local, loss on restart is
// acceptable because the cookie tier still covers the flow.
type StateCache interface {
	// Put stores the nonce for a shop with the given lifetime, overwriting
	// any earlier nonce for the same shop.
	Put(shop, nonce string, ttl time.Duration)
	// Get returns the live nonce for a shop. Expired entries report a miss.
	Get(shop string) (string, bool)
	// Delete removes the entry for a shop if present.
	Delete(shop string)
}
