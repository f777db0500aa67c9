// Package registry provides the etcd-backed directory of server managers.
//
// etcd gives us a strongly consistent view of which server managers are up:
//
//	Key:   /domain-mgmt/servermanagers/{hostName}/{addr}
//	Value: JSON-encoded ManagerInstance
//
// Registration uses TTL-based leases: if a server manager crashes without
// deregistering, its lease expires and the entry disappears on its own, so
// the domain controller never resolves a ghost endpoint.
package registry

import (
	"context"
	"encoding/json"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/domain-mgmt/servermanagers/"

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // thread-safe, shared across goroutines

	mu     sync.Mutex
	leases map[string]*registration // key → this process's live registration
}

// registration is the local state of one Register call: the lease being
// renewed and the cancel that stops its keepalive stream.
type registration struct {
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
}

// NewEtcdRegistry connects to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints: endpoints,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{
		client: c,
		leases: make(map[string]*registration),
	}, nil
}

// Register announces a server manager under its host name with a TTL lease
// and starts background keepalive renewal. The lease is remembered per key
// so Deregister can revoke it and stop the renewal.
func (r *EtcdRegistry) Register(hostName string, instance ManagerInstance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	key := keyPrefix + hostName + "/" + instance.Addr
	_, err = r.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	kaCtx, cancel := context.WithCancel(context.Background())
	ch, err := r.client.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		return err
	}

	// Drain keepalive responses so the channel never fills up; the channel
	// closes when kaCtx is cancelled, ending the goroutine.
	go func() {
		for range ch {
		}
	}()

	r.mu.Lock()
	if prev, ok := r.leases[key]; ok {
		// Re-registration of the same key: stop renewing the old lease.
		prev.cancel()
		r.client.Revoke(ctx, prev.leaseID)
	}
	r.leases[key] = &registration{leaseID: lease.ID, cancel: cancel}
	r.mu.Unlock()
	return nil
}

// Deregister removes one server-manager entry. Called during graceful
// shutdown before the listener stops accepting. For a key this process
// registered, the keepalive stops and the lease is revoked, which deletes
// the key with it; any other key is deleted directly.
func (r *EtcdRegistry) Deregister(hostName string, addr string) error {
	key := keyPrefix + hostName + "/" + addr

	r.mu.Lock()
	reg, ok := r.leases[key]
	if ok {
		delete(r.leases, key)
	}
	r.mu.Unlock()

	if ok {
		reg.cancel()
		_, err := r.client.Revoke(context.TODO(), reg.leaseID)
		return err
	}
	_, err := r.client.Delete(context.TODO(), key)
	return err
}

// Discover returns every server manager currently registered for a host.
func (r *EtcdRegistry) Discover(hostName string) ([]ManagerInstance, error) {
	resp, err := r.client.Get(context.TODO(), keyPrefix+hostName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ManagerInstance, 0)
	for _, kv := range resp.Kvs {
		var instance ManagerInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Watch emits the full instance list for a host whenever its entries change
// (registration, deregistration, lease expiry). Server-push via etcd's Watch
// API, no polling.
func (r *EtcdRegistry) Watch(hostName string) <-chan []ManagerInstance {
	ch := make(chan []ManagerInstance, 1)
	prefix := keyPrefix + hostName + "/"

	go func() {
		watchChan := r.client.Watch(context.TODO(), prefix, clientv3.WithPrefix())
		for range watchChan {
			// Re-fetch the whole list on any change; simpler than
			// folding individual events into local state.
			instances, _ := r.Discover(hostName)
			ch <- instances
		}
	}()

	return ch
}

// Close stops every outstanding keepalive and releases the underlying etcd
// client. Leases still held expire on their own TTL.
func (r *EtcdRegistry) Close() error {
	r.mu.Lock()
	for key, reg := range r.leases {
		reg.cancel()
		delete(r.leases, key)
	}
	r.mu.Unlock()
	return r.client.Close()
}
