package state

import (
	"github.com/woodyard/duskd/internal/kv"
)

// Snapshot records a device's brightness and colour temperature as they
// were just before a fade-out, so a later restore can undo it.
// Temperature is nil for devices without an adjustable temperature.
type Snapshot struct {
	Dim         float64  `json:"dim"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Snapshots stores the last pre-fade settings per device.
// Entries are overwritten on every fade-out and never expire; the most
// recent fade stays restorable indefinitely.
type Snapshots struct {
	store *TypedStore[Snapshot]
}

// NewSnapshots creates a snapshot store over the given bucket.
func NewSnapshots(bucket kv.Bucket) *Snapshots {
	return &Snapshots{store: NewTypedStore[Snapshot](bucket)}
}

// Save overwrites the snapshot for a device.
func (s *Snapshots) Save(deviceID string, dim float64, temperature *float64) error {
	return s.store.Set(deviceID, Snapshot{Dim: dim, Temperature: temperature})
}

// Read returns the snapshot for a device; ok is false if none was ever saved.
func (s *Snapshots) Read(deviceID string) (snap Snapshot, ok bool, err error) {
	return s.store.Get(deviceID)
}
