// Package loadbalance selects among server-manager instances when discovery
// returns more than one address for a host (an active manager plus standbys).
//
// Two strategies:
//   - RoundRobin:     equal-capacity instances, spread probes evenly
//   - WeightedRandom: prefer the active manager via registration weight
package loadbalance

import "domain-mgmt/registry"

// Balancer picks one instance from the discovered list.
// Called before each resolution — must be goroutine-safe.
type Balancer interface {
	Pick(instances []registry.ManagerInstance) (*registry.ManagerInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
