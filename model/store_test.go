package model

import (
	"strings"
	"testing"
)

func TestSetDomainReplacesWholesale(t *testing.T) {
	store := NewStore("host-a")
	store.SetDomain(DomainModel{Name: "old", Attributes: map[string]string{"x": "1"}})
	store.SetDomain(DomainModel{Name: "new"})

	domain := store.Domain()
	if domain.Name != "new" {
		t.Fatalf("expected replaced model, got %q", domain.Name)
	}
	if len(domain.Attributes) != 0 {
		t.Fatal("full push must not merge with the previous model")
	}
}

func TestSnapshotsAreIndependentOfLiveState(t *testing.T) {
	store := NewStore("host-a")
	store.SetDomain(DomainModel{
		Name:       "prod",
		Attributes: map[string]string{"heap": "512m"},
		ServerGroups: map[string]ServerGroup{
			"web": {Profile: "default", Servers: []string{"web-one"}},
		},
	})

	snapshot := store.Domain()
	store.ApplyDomainUpdates([]DomainUpdate{
		{Action: ActionSetAttribute, Name: "heap", Value: "1g"},
	})
	if got := snapshot.Attributes["heap"]; got != "512m" {
		t.Errorf("snapshot must not see later updates, heap=%q", got)
	}

	// Writing into a snapshot must not leak into the store either.
	snapshot.Attributes["heap"] = "poisoned"
	snapshot.ServerGroups["web"].Servers[0] = "poisoned"
	if got := store.Domain().Attributes["heap"]; got != "1g" {
		t.Errorf("store must be isolated from snapshot writes, heap=%q", got)
	}
	if got := store.Domain().ServerGroups["web"].Servers[0]; got != "web-one" {
		t.Errorf("store must be isolated from snapshot writes, server=%q", got)
	}

	// Same for the model handed to SetDomain.
	pushed := DomainModel{Name: "next", Attributes: map[string]string{"x": "1"}}
	store.SetDomain(pushed)
	pushed.Attributes["x"] = "poisoned"
	if got := store.Domain().Attributes["x"]; got != "1" {
		t.Errorf("store must clone the pushed model, x=%q", got)
	}
}

func TestHostSnapshotIsIndependent(t *testing.T) {
	store := NewStore("host-a")
	store.ApplyHostUpdates([]HostUpdate{
		{Action: ActionAddServer, Name: "web-one", Server: ServerModel{
			Name: "web-one", Attributes: map[string]string{"heap": "2g"},
		}},
	})

	snapshot := store.Host()
	snapshot.Servers["web-one"].Attributes["heap"] = "poisoned"
	delete(snapshot.Servers, "web-one")

	host := store.Host()
	if _, ok := host.Servers["web-one"]; !ok {
		t.Fatal("store must be isolated from snapshot writes")
	}
	if got := host.Servers["web-one"].Attributes["heap"]; got != "2g" {
		t.Errorf("store must be isolated from snapshot writes, heap=%q", got)
	}
}

func TestApplyDomainUpdatesOrderAndIsolation(t *testing.T) {
	store := NewStore("host-a")

	updates := []DomainUpdate{
		{Action: ActionSetAttribute, Name: "heap", Value: "512m"},
		{Action: ActionRemoveAttribute, Name: "missing"}, // fails on its own
		{Action: ActionSetAttribute, Name: "heap", Value: "1g"},
	}
	results := store.ApplyDomainUpdates(updates)

	if len(results) != len(updates) {
		t.Fatalf("expected %d results, got %d", len(updates), len(results))
	}
	if !results[0].Applied || results[1].Applied || !results[2].Applied {
		t.Fatalf("expected [applied, failed, applied], got %+v", results)
	}
	if results[1].ErrorMessage == "" {
		t.Error("failed result must carry an error description")
	}

	// The failing middle item must not have stopped the third: updates apply
	// in transmission order, so the last write wins.
	if got := store.Domain().Attributes["heap"]; got != "1g" {
		t.Errorf("expected heap=1g after ordered application, got %q", got)
	}
}

func TestApplyDomainUpdatesReportsAffectedServers(t *testing.T) {
	store := NewStore("host-a")

	results := store.ApplyDomainUpdates([]DomainUpdate{
		{
			Action: ActionAddServerGroup,
			Name:   "web",
			Group:  ServerGroup{Profile: "default", Servers: []string{"web-one", "web-two"}},
		},
	})
	if len(results) != 1 || !results[0].Applied {
		t.Fatalf("expected one applied result, got %+v", results)
	}
	if len(results[0].Servers) != 2 {
		t.Fatalf("expected 2 affected servers, got %+v", results[0].Servers)
	}
	if results[0].Servers[0].HostName != "host-a" || results[0].Servers[0].ServerGroup != "web" {
		t.Errorf("unexpected server identity: %+v", results[0].Servers[0])
	}
}

func TestApplyHostUpdates(t *testing.T) {
	store := NewStore("host-a")

	results := store.ApplyHostUpdates([]HostUpdate{
		{Action: ActionAddServer, Name: "web-one", Server: ServerModel{Name: "web-one", Group: "web"}},
		{Action: ActionAddServer, Name: "web-one", Server: ServerModel{Name: "web-one"}}, // duplicate
		{Action: ActionRemoveServer, Name: "nope"},
	})

	if !results[0].Applied || results[1].Applied || results[2].Applied {
		t.Fatalf("expected [applied, failed, failed], got %+v", results)
	}
	if _, ok := store.Host().Servers["web-one"]; !ok {
		t.Error("first add should have landed")
	}
}

func TestApplyServerUpdatesUnknownServer(t *testing.T) {
	store := NewStore("host-a")

	results := store.ApplyServerUpdates("ghost", []ServerUpdate{
		{Action: ActionSetAttribute, Name: "jvm", Value: "17"},
		{Action: ActionSetAttribute, Name: "heap", Value: "1g"},
	})

	if len(results) != 2 {
		t.Fatalf("expected a result per update even for an unknown server, got %d", len(results))
	}
	for i, result := range results {
		if result.Applied {
			t.Errorf("result %d should have failed", i)
		}
		if !strings.Contains(result.ErrorMessage, "ghost") {
			t.Errorf("result %d should name the missing server: %q", i, result.ErrorMessage)
		}
	}
}

func TestApplyServerUpdates(t *testing.T) {
	store := NewStore("host-a")
	store.ApplyHostUpdates([]HostUpdate{
		{Action: ActionAddServer, Name: "web-one", Server: ServerModel{Name: "web-one"}},
	})

	results := store.ApplyServerUpdates("web-one", []ServerUpdate{
		{Action: ActionSetAttribute, Name: "heap", Value: "2g"},
	})
	if !results[0].Applied {
		t.Fatalf("expected applied, got %+v", results[0])
	}
	if got := store.Host().Servers["web-one"].Attributes["heap"]; got != "2g" {
		t.Errorf("server attribute not persisted, got %q", got)
	}
}
