package state

import (
	"testing"

	"github.com/woodyard/duskd/internal/kv"
)

func TestSnapshots_RoundTrip(t *testing.T) {
	snapshots := NewSnapshots(kv.NewMemoryBucket("snapshots"))

	temp := 0.4
	if err := snapshots.Save("dev-1", 0.7, &temp); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	snap, ok, err := snapshots.Read("dev-1")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !ok {
		t.Fatal("Read found no snapshot after Save")
	}
	if snap.Dim != 0.7 {
		t.Errorf("Dim = %v, want 0.7", snap.Dim)
	}
	if snap.Temperature == nil || *snap.Temperature != 0.4 {
		t.Errorf("Temperature = %v, want 0.4", snap.Temperature)
	}
}

func TestSnapshots_NoTemperature(t *testing.T) {
	snapshots := NewSnapshots(kv.NewMemoryBucket("snapshots"))

	if err := snapshots.Save("dev-1", 0.5, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	snap, ok, err := snapshots.Read("dev-1")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !ok {
		t.Fatal("Read found no snapshot after Save")
	}
	if snap.Temperature != nil {
		t.Errorf("Temperature = %v, want nil", *snap.Temperature)
	}
}

func TestSnapshots_Overwrite(t *testing.T) {
	snapshots := NewSnapshots(kv.NewMemoryBucket("snapshots"))

	temp := 0.9
	if err := snapshots.Save("dev-1", 1.0, &temp); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := snapshots.Save("dev-1", 0.25, nil); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	snap, ok, err := snapshots.Read("dev-1")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if !ok {
		t.Fatal("Read found no snapshot after overwrite")
	}
	if snap.Dim != 0.25 {
		t.Errorf("Dim = %v, want 0.25 (last write wins)", snap.Dim)
	}
	if snap.Temperature != nil {
		t.Error("Temperature survived overwrite, want nil (no merge semantics)")
	}
}

func TestSnapshots_ReadAbsent(t *testing.T) {
	snapshots := NewSnapshots(kv.NewMemoryBucket("snapshots"))

	_, ok, err := snapshots.Read("never-faded")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if ok {
		t.Error("Read reported a snapshot for a device never faded")
	}
}
