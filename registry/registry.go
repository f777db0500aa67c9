package registry

// ManagerInstance is one registered server-manager endpoint for a host.
// A host normally has exactly one, but a standby can register under the same
// host name; Weight steers the balancer when more than one is present.
type ManagerInstance struct {
	Addr    string
	Weight  int
	Version string
}

// Registry tracks which server managers are reachable and where. The server
// manager registers itself on startup and deregisters on shutdown; the
// domain controller resolves host names through Discover and can Watch for
// membership changes.
type Registry interface {
	Register(hostName string, instance ManagerInstance, ttl int64) error
	Deregister(hostName string, addr string) error
	Discover(hostName string) ([]ManagerInstance, error)
	Watch(hostName string) <-chan []ManagerInstance
}
