package loadbalance

import (
	"fmt"
	"math/rand"

	"domain-mgmt/registry"
)

// WeightedRandomBalancer picks proportionally to instance weight, so an
// active server manager registered with a high weight gets nearly all of the
// traffic while a standby still gets probed occasionally.
type WeightedRandomBalancer struct{}

func (b *WeightedRandomBalancer) Pick(instances []registry.ManagerInstance) (*registry.ManagerInstance, error) {
	if len(instances) == 0 {
		return nil, fmt.Errorf("no server manager instances available")
	}

	totalWeight := 0
	for _, v := range instances {
		totalWeight += v.Weight
	}
	if totalWeight <= 0 {
		// No weights registered; fall back to uniform.
		return &instances[rand.Intn(len(instances))], nil
	}

	r := rand.Intn(totalWeight)
	for i := range instances {
		r -= instances[i].Weight
		if r < 0 {
			return &instances[i], nil
		}
	}

	return nil, fmt.Errorf("unexpected error in weighted random selection")
}

func (b *WeightedRandomBalancer) Name() string {
	return "WeightedRandom"
}
