package state

import (
	"testing"

	"github.com/woodyard/duskd/internal/kv"
)

func TestRegistry_MergeWrites(t *testing.T) {
	registry := NewRegistry(kv.NewMemoryBucket("adaptive_state"))

	if err := registry.SetProfile("dev-1", "Evening 40%"); err != nil {
		t.Fatalf("SetProfile returned error: %v", err)
	}
	if err := registry.SetOverride("dev-1", true); err != nil {
		t.Fatalf("SetOverride returned error: %v", err)
	}

	st, ok, err := registry.Get("dev-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !ok {
		t.Fatal("Get found no state after writes")
	}
	if !st.ManualOverride {
		t.Error("SetProfile clobbered the override flag")
	}
	if st.LastAppliedProfile == nil || *st.LastAppliedProfile != "Evening 40%" {
		t.Errorf("LastAppliedProfile = %v, want Evening 40%%", st.LastAppliedProfile)
	}

	// Flipping the flag keeps the profile.
	if err := registry.SetOverride("dev-1", false); err != nil {
		t.Fatalf("SetOverride returned error: %v", err)
	}
	st, _, err = registry.Get("dev-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if st.ManualOverride {
		t.Error("override flag not updated")
	}
	if st.LastAppliedProfile == nil {
		t.Error("SetOverride clobbered the profile")
	}
}

func TestRegistry_LazyCreation(t *testing.T) {
	registry := NewRegistry(kv.NewMemoryBucket("adaptive_state"))

	_, ok, err := registry.Get("never-seen")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if ok {
		t.Error("Get reported state for a device never written")
	}

	if err := registry.SetOverride("dev-1", false); err != nil {
		t.Fatalf("SetOverride returned error: %v", err)
	}

	all, err := registry.All()
	if err != nil {
		t.Fatalf("All returned error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("All() has %d entries, want 1", len(all))
	}
	if _, ok := all["dev-1"]; !ok {
		t.Error("All() missing dev-1")
	}
}
