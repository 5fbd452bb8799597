package state

import (
	"github.com/woodyard/duskd/internal/kv"
)

// DeviceState is the adaptive-lighting state per device: whether a human
// action overrode automated control, and the last profile the control loop
// applied. The control loop owns writes; diagnostics only reads.
type DeviceState struct {
	ManualOverride     bool    `json:"manual_override"`
	LastAppliedProfile *string `json:"last_applied_profile,omitempty"`
}

// Registry stores adaptive-lighting state per device.
// Entries are created lazily on first write and never deleted;
// writes merge field-wise with last write wins per field.
type Registry struct {
	store *TypedStore[DeviceState]
}

// NewRegistry creates a registry over the given bucket.
func NewRegistry(bucket kv.Bucket) *Registry {
	return &Registry{store: NewTypedStore[DeviceState](bucket)}
}

// SetOverride records whether the device is manually overridden,
// preserving the last applied profile.
func (r *Registry) SetOverride(deviceID string, manual bool) error {
	return r.store.Update(deviceID, func(current DeviceState) DeviceState {
		current.ManualOverride = manual
		return current
	})
}

// SetProfile records the last profile applied by adaptive control,
// preserving the override flag.
func (r *Registry) SetProfile(deviceID string, profile string) error {
	return r.store.Update(deviceID, func(current DeviceState) DeviceState {
		current.LastAppliedProfile = &profile
		return current
	})
}

// Get returns the state for a device; ok is false if it was never observed.
func (r *Registry) Get(deviceID string) (st DeviceState, ok bool, err error) {
	return r.store.Get(deviceID)
}

// All returns the state of every observed device keyed by identifier.
func (r *Registry) All() (map[string]DeviceState, error) {
	return r.store.GetAll()
}
