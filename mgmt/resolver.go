package mgmt

import (
	"fmt"
	"time"

	"domain-mgmt/codec"
	"domain-mgmt/loadbalance"
	"domain-mgmt/registry"
)

// Resolver turns a host name into a connection target using the
// server-manager registry, picking among instances with the configured
// balancer when a host has more than one registered.
type Resolver struct {
	registry        registry.Registry
	balancer        loadbalance.Balancer
	codecType       codec.CodecType
	connectTimeout  time.Duration
	exchangeTimeout time.Duration
}

// NewResolver builds a resolver. A nil balancer defaults to round-robin;
// zero timeouts fall back to the package defaults on each resolved target.
func NewResolver(reg registry.Registry, bal loadbalance.Balancer, codecType codec.CodecType,
	connectTimeout, exchangeTimeout time.Duration) *Resolver {
	if bal == nil {
		bal = &loadbalance.RoundRobinBalancer{}
	}
	return &Resolver{
		registry:        reg,
		balancer:        bal,
		codecType:       codecType,
		connectTimeout:  connectTimeout,
		exchangeTimeout: exchangeTimeout,
	}
}

// Resolve looks up the host's registered server managers and picks one.
func (r *Resolver) Resolve(hostName string) (Target, error) {
	instances, err := r.registry.Discover(hostName)
	if err != nil {
		return Target{}, fmt.Errorf("discovering server managers for host %q: %w", hostName, err)
	}
	instance, err := r.balancer.Pick(instances)
	if err != nil {
		return Target{}, fmt.Errorf("resolving host %q: %w", hostName, err)
	}
	return Target{
		Addr:            instance.Addr,
		ConnectTimeout:  r.connectTimeout,
		ExchangeTimeout: r.exchangeTimeout,
	}.Normalize(), nil
}

// Client resolves the host and returns a client bound to the picked target.
// Resolution happens once, here: the returned client keeps its target for
// its whole lifetime, exactly like a directly constructed one.
func (r *Resolver) Client(hostName string) (*Client, error) {
	target, err := r.Resolve(hostName)
	if err != nil {
		return nil, err
	}
	return NewClient(target, r.codecType, nil), nil
}
