package loadbalance

import (
	"fmt"
	"sync/atomic"

	"domain-mgmt/registry"
)

// RoundRobinBalancer cycles through the instances in order.
// Uses an atomic counter for lock-free, goroutine-safe operation.
type RoundRobinBalancer struct {
	counter int64
}

func (b *RoundRobinBalancer) Pick(instances []registry.ManagerInstance) (*registry.ManagerInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no server manager instances available")
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(instances))
	return &instances[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
