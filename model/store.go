package model

import (
	"sync"
)

// Store is the server manager's in-memory copy of the models it is
// responsible for. All mutation goes through the batched-apply methods so the
// per-item isolation and ordering contract lives in one place.
//
// Concurrent exchanges on different connections may touch the store at once;
// the mutex serializes them, so within one batch no other call interleaves.
type Store struct {
	mu       sync.Mutex
	hostName string
	domain   DomainModel
	host     HostModel
}

func NewStore(hostName string) *Store {
	return &Store{
		hostName: hostName,
		host:     HostModel{Name: hostName},
	}
}

// HostName returns the name this store's host registered under.
func (s *Store) HostName() string {
	return s.hostName
}

// SetDomain replaces the full domain model. All-or-nothing: there is no
// partial state a caller could observe. The model is cloned on the way in,
// so the caller keeps no handle into the store's state.
func (s *Store) SetDomain(m DomainModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domain = m.Clone()
}

// Domain returns a snapshot of the current domain model. The snapshot is a
// deep copy: reading it never races with concurrent updates.
func (s *Store) Domain() DomainModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domain.Clone()
}

// Host returns a snapshot of the current host model. Deep copy, same as
// Domain.
func (s *Store) Host() HostModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host.Clone()
}

// ApplyDomainUpdates applies the updates in order and returns one result per
// update at the same position. A failing update is reported in its slot and
// the remaining updates still run.
func (s *Store) ApplyDomainUpdates(updates []DomainUpdate) []UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]UpdateResult, 0, len(updates))
	for _, update := range updates {
		if err := update.Apply(&s.domain); err != nil {
			results = append(results, Failure(err))
			continue
		}
		results = append(results, Success(update.AffectedServers(&s.domain, s.hostName)))
	}
	return results
}

// ApplyHostUpdates applies host-scoped updates in order, one result per slot.
func (s *Store) ApplyHostUpdates(updates []HostUpdate) []UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]UpdateResult, 0, len(updates))
	for _, update := range updates {
		if err := update.Apply(&s.host); err != nil {
			results = append(results, Failure(err))
			continue
		}
		results = append(results, Success(nil))
	}
	return results
}

// ApplyServerUpdates applies updates to one named server's model in order.
// An unknown server name fails every item, since none of them can apply.
func (s *Store) ApplyServerUpdates(serverName string, updates []ServerUpdate) []UpdateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]UpdateResult, 0, len(updates))
	server, ok := s.host.Servers[serverName]
	if !ok {
		for range updates {
			results = append(results, UpdateResult{
				Applied:      false,
				ErrorMessage: "no server named " + serverName + " on host " + s.hostName,
			})
		}
		return results
	}

	for _, update := range updates {
		if err := update.Apply(&server); err != nil {
			results = append(results, Failure(err))
			continue
		}
		results = append(results, Success(nil))
	}
	s.host.Servers[serverName] = server
	return results
}
