package registry

import (
	"context"
	"net"
	"testing"
	"time"
)

const etcdAddr = "localhost:2379"

// requireEtcd skips the test when no local etcd is listening. The registry
// tests exercise real lease/keepalive behavior, which cannot be faked.
func requireEtcd(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", etcdAddr, 500*time.Millisecond)
	if err != nil {
		t.Skipf("no etcd at %s: %v", etcdAddr, err)
	}
	conn.Close()
}

func TestRegisterAndDiscover(t *testing.T) {
	requireEtcd(t)

	reg, err := NewEtcdRegistry([]string{etcdAddr})
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	inst1 := ManagerInstance{Addr: "127.0.0.1:9991", Weight: 10, Version: "1.0"}
	inst2 := ManagerInstance{Addr: "127.0.0.1:9992", Weight: 5, Version: "1.0"}

	if err := reg.Register("host-a", inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register("host-a", inst2, 10); err != nil {
		t.Fatal(err)
	}
	defer reg.Deregister("host-a", inst2.Addr)

	instances, err := reg.Discover("host-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(instances))
	}

	if err := reg.Deregister("host-a", inst1.Addr); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover("host-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 {
		t.Fatalf("expect 1 instance after deregister, got %d", len(instances))
	}
	if instances[0].Addr != inst2.Addr {
		t.Fatalf("expect %s, got %s", inst2.Addr, instances[0].Addr)
	}
}

func TestDeregisterRevokesLease(t *testing.T) {
	requireEtcd(t)

	reg, err := NewEtcdRegistry([]string{etcdAddr})
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	inst := ManagerInstance{Addr: "127.0.0.1:9994"}
	if err := reg.Register("host-lease", inst, 10); err != nil {
		t.Fatal(err)
	}

	reg.mu.Lock()
	registered := reg.leases[keyPrefix+"host-lease/"+inst.Addr]
	reg.mu.Unlock()
	if registered == nil {
		t.Fatal("registration did not record its lease")
	}

	if err := reg.Deregister("host-lease", inst.Addr); err != nil {
		t.Fatal(err)
	}

	// The lease must be gone, not left for the keepalive to renew forever.
	ttl, err := reg.client.TimeToLive(context.TODO(), registered.leaseID)
	if err != nil {
		t.Fatal(err)
	}
	if ttl.TTL != -1 {
		t.Fatalf("lease should be revoked, TTL=%d", ttl.TTL)
	}

	instances, err := reg.Discover("host-lease")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 0 {
		t.Fatalf("revoking the lease should delete the key, got %+v", instances)
	}
}

func TestDiscoverUnknownHost(t *testing.T) {
	requireEtcd(t)

	reg, err := NewEtcdRegistry([]string{etcdAddr})
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	instances, err := reg.Discover("no-such-host")
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 0 {
		t.Fatalf("expect no instances, got %d", len(instances))
	}
}

func TestWatchSeesRegistration(t *testing.T) {
	requireEtcd(t)

	reg, err := NewEtcdRegistry([]string{etcdAddr})
	if err != nil {
		t.Fatal(err)
	}
	defer reg.Close()

	ch := reg.Watch("host-watch")
	time.Sleep(100 * time.Millisecond)

	inst := ManagerInstance{Addr: "127.0.0.1:9993"}
	if err := reg.Register("host-watch", inst, 10); err != nil {
		t.Fatal(err)
	}
	defer reg.Deregister("host-watch", inst.Addr)

	select {
	case instances := <-ch:
		if len(instances) != 1 || instances[0].Addr != inst.Addr {
			t.Fatalf("unexpected watch payload: %+v", instances)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not report the registration")
	}
}
