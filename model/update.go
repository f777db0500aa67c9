package model

import (
	"fmt"
)

// UpdateAction discriminates the change an update describes. The protocol
// layer never looks inside an update; only the applying peer interprets it.
type UpdateAction string

const (
	ActionSetAttribute    UpdateAction = "set-attribute"
	ActionRemoveAttribute UpdateAction = "remove-attribute"
	ActionAddServerGroup  UpdateAction = "add-server-group"
	ActionAddServer       UpdateAction = "add-server"
	ActionRemoveServer    UpdateAction = "remove-server"
)

// DomainUpdate is one change to the domain model. Updates are applied by the
// peer in transmission order; each either applies cleanly or fails on its own
// without stopping the ones after it.
type DomainUpdate struct {
	Action UpdateAction `json:"action"`
	Name   string       `json:"name"`
	Value  string       `json:"value,omitempty"`
	Group  ServerGroup  `json:"group,omitempty"`
}

// HostUpdate is one change to a host model.
type HostUpdate struct {
	Action UpdateAction `json:"action"`
	Name   string       `json:"name"`
	Value  string       `json:"value,omitempty"`
	Server ServerModel  `json:"server,omitempty"`
}

// ServerUpdate is one change to a single server's model.
type ServerUpdate struct {
	Action UpdateAction `json:"action"`
	Name   string       `json:"name"`
	Value  string       `json:"value,omitempty"`
}

// Apply mutates m according to the update.
func (u DomainUpdate) Apply(m *DomainModel) error {
	switch u.Action {
	case ActionSetAttribute:
		if m.Attributes == nil {
			m.Attributes = make(map[string]string)
		}
		m.Attributes[u.Name] = u.Value
		return nil
	case ActionRemoveAttribute:
		if _, ok := m.Attributes[u.Name]; !ok {
			return fmt.Errorf("domain attribute %q does not exist", u.Name)
		}
		delete(m.Attributes, u.Name)
		return nil
	case ActionAddServerGroup:
		if m.ServerGroups == nil {
			m.ServerGroups = make(map[string]ServerGroup)
		}
		if _, ok := m.ServerGroups[u.Name]; ok {
			return fmt.Errorf("server group %q already exists", u.Name)
		}
		m.ServerGroups[u.Name] = u.Group
		return nil
	default:
		return fmt.Errorf("action %q is not valid for the domain model", u.Action)
	}
}

// AffectedServers lists the servers a domain update touches, so the caller
// can tell which processes need a restart or a config push.
func (u DomainUpdate) AffectedServers(m *DomainModel, hostName string) []ServerIdentity {
	var ids []ServerIdentity
	switch u.Action {
	case ActionAddServerGroup:
		for _, name := range u.Group.Servers {
			ids = append(ids, ServerIdentity{HostName: hostName, ServerGroup: u.Name, ServerName: name})
		}
	case ActionSetAttribute, ActionRemoveAttribute:
		// Domain-wide attributes touch every server in every group.
		for groupName, group := range m.ServerGroups {
			for _, name := range group.Servers {
				ids = append(ids, ServerIdentity{HostName: hostName, ServerGroup: groupName, ServerName: name})
			}
		}
	}
	return ids
}

// Apply mutates m according to the update.
func (u HostUpdate) Apply(m *HostModel) error {
	switch u.Action {
	case ActionSetAttribute:
		if m.Attributes == nil {
			m.Attributes = make(map[string]string)
		}
		m.Attributes[u.Name] = u.Value
		return nil
	case ActionRemoveAttribute:
		if _, ok := m.Attributes[u.Name]; !ok {
			return fmt.Errorf("host attribute %q does not exist", u.Name)
		}
		delete(m.Attributes, u.Name)
		return nil
	case ActionAddServer:
		if m.Servers == nil {
			m.Servers = make(map[string]ServerModel)
		}
		if _, ok := m.Servers[u.Name]; ok {
			return fmt.Errorf("server %q already exists on host %q", u.Name, m.Name)
		}
		m.Servers[u.Name] = u.Server
		return nil
	case ActionRemoveServer:
		if _, ok := m.Servers[u.Name]; !ok {
			return fmt.Errorf("server %q does not exist on host %q", u.Name, m.Name)
		}
		delete(m.Servers, u.Name)
		return nil
	default:
		return fmt.Errorf("action %q is not valid for a host model", u.Action)
	}
}

// Apply mutates m according to the update.
func (u ServerUpdate) Apply(m *ServerModel) error {
	switch u.Action {
	case ActionSetAttribute:
		if m.Attributes == nil {
			m.Attributes = make(map[string]string)
		}
		m.Attributes[u.Name] = u.Value
		return nil
	case ActionRemoveAttribute:
		if _, ok := m.Attributes[u.Name]; !ok {
			return fmt.Errorf("server attribute %q does not exist", u.Name)
		}
		delete(m.Attributes, u.Name)
		return nil
	default:
		return fmt.Errorf("action %q is not valid for a server model", u.Action)
	}
}
