// Package model holds the configuration documents managed over the wire:
// the domain model pushed by the domain controller, the host and server
// models it is incrementally updated against, and the update/result types
// that ride inside batched management calls.
package model

import (
	"maps"
	"slices"
)

// DomainModel is the full domain-scoped configuration document. A full-model
// push replaces the peer's copy wholesale; batched updates mutate it in place.
type DomainModel struct {
	Name         string                 `json:"name"`
	ServerGroups map[string]ServerGroup `json:"serverGroups,omitempty"`
	Attributes   map[string]string      `json:"attributes,omitempty"`
}

// ServerGroup binds a named set of servers to a configuration profile.
type ServerGroup struct {
	Profile string            `json:"profile"`
	Servers []string          `json:"servers,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// HostModel is the host-scoped configuration document kept by one server
// manager: which servers it runs and host-local settings.
type HostModel struct {
	Name       string                 `json:"name"`
	Servers    map[string]ServerModel `json:"servers,omitempty"`
	Attributes map[string]string      `json:"attributes,omitempty"`
}

// ServerModel is the configuration of a single managed server process.
type ServerModel struct {
	Name       string            `json:"name"`
	Group      string            `json:"group,omitempty"`
	AutoStart  bool              `json:"autoStart,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Clone returns a copy sharing no maps or slices with the original.
func (m DomainModel) Clone() DomainModel {
	out := m
	out.Attributes = maps.Clone(m.Attributes)
	if m.ServerGroups != nil {
		out.ServerGroups = make(map[string]ServerGroup, len(m.ServerGroups))
		for name, group := range m.ServerGroups {
			out.ServerGroups[name] = group.Clone()
		}
	}
	return out
}

// Clone returns a copy sharing no maps or slices with the original.
func (g ServerGroup) Clone() ServerGroup {
	out := g
	out.Servers = slices.Clone(g.Servers)
	out.Options = maps.Clone(g.Options)
	return out
}

// Clone returns a copy sharing no maps or slices with the original.
func (m HostModel) Clone() HostModel {
	out := m
	out.Attributes = maps.Clone(m.Attributes)
	if m.Servers != nil {
		out.Servers = make(map[string]ServerModel, len(m.Servers))
		for name, server := range m.Servers {
			out.Servers[name] = server.Clone()
		}
	}
	return out
}

// Clone returns a copy sharing no maps with the original.
func (m ServerModel) Clone() ServerModel {
	out := m
	out.Attributes = maps.Clone(m.Attributes)
	return out
}

// ServerIdentity names one server affected by a domain-level update:
// the host it runs on, its server group, and its server name.
type ServerIdentity struct {
	HostName    string `json:"hostName"`
	ServerGroup string `json:"serverGroup"`
	ServerName  string `json:"serverName"`
}
