package fade

import (
	"context"
	"sort"
	"testing"

	"github.com/woodyard/duskd/internal/hub"
)

func memberIDs(targets []hub.Device) []string {
	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestPrefixResolver_SingleLight(t *testing.T) {
	desk := light("desk", "Desk Lamp", 0.8, nil)
	other := light("hall", "Hallway", 0.5, nil)
	resolver := NewPrefixResolver(&fakeDirectory{devices: []hub.Device{desk, other}})

	targets, err := resolver.ResolveTargets(context.Background(), &desk)
	if err != nil {
		t.Fatalf("ResolveTargets returned error: %v", err)
	}
	if len(targets) != 1 || targets[0].ID != "desk" {
		t.Errorf("targets = %v, want the device itself", memberIDs(targets))
	}
}

func TestPrefixResolver_GroupProxy(t *testing.T) {
	proxy := light("grp", "Lights", 0.8, nil)
	m1 := light("l1", "Lights 1", 0.8, nil)
	m2 := light("l2", "Lights 2", 0.6, nil)
	unrelated := light("u1", "Lightstrip", 0.3, nil) // no space after prefix

	resolver := NewPrefixResolver(&fakeDirectory{devices: []hub.Device{proxy, m1, m2, unrelated}})

	targets, err := resolver.ResolveTargets(context.Background(), &proxy)
	if err != nil {
		t.Fatalf("ResolveTargets returned error: %v", err)
	}

	ids := memberIDs(targets)
	if len(ids) != 2 || ids[0] != "l1" || ids[1] != "l2" {
		t.Errorf("targets = %v, want [l1 l2]", ids)
	}
	for _, target := range targets {
		if target.ID == "grp" {
			t.Error("group proxy included in its own targets")
		}
	}
}

func TestPrefixResolver_OrderIndependent(t *testing.T) {
	proxy := light("grp", "Lights", 0.8, nil)
	m1 := light("l1", "Lights 1", 0.8, nil)
	m2 := light("l2", "Lights 2", 0.6, nil)

	orders := [][]hub.Device{
		{proxy, m1, m2},
		{m2, proxy, m1},
		{m1, m2, proxy},
	}
	for _, order := range orders {
		resolver := NewPrefixResolver(&fakeDirectory{devices: order})
		targets, err := resolver.ResolveTargets(context.Background(), &proxy)
		if err != nil {
			t.Fatalf("ResolveTargets returned error: %v", err)
		}
		ids := memberIDs(targets)
		if len(ids) != 2 || ids[0] != "l1" || ids[1] != "l2" {
			t.Errorf("targets for order %v = %v, want [l1 l2]", memberIDs(order), ids)
		}
	}
}

func TestPrefixResolver_IgnoresNonLights(t *testing.T) {
	proxy := light("grp", "Lights", 0.8, nil)
	socket := hub.Device{ID: "s1", Name: "Lights Socket", Class: "socket"}

	resolver := NewPrefixResolver(&fakeDirectory{devices: []hub.Device{proxy, socket}})

	targets, err := resolver.ResolveTargets(context.Background(), &proxy)
	if err != nil {
		t.Fatalf("ResolveTargets returned error: %v", err)
	}

	// The only prefix match is not light-capable, so the handle is a
	// plain light after all.
	if len(targets) != 1 || targets[0].ID != "grp" {
		t.Errorf("targets = %v, want fallback to the device itself", memberIDs(targets))
	}
}
