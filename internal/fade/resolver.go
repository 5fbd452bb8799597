package fade

import (
	"context"
	"strings"

	"github.com/woodyard/duskd/internal/hub"
)

// Resolver expands a device handle into the lights a fade should touch.
type Resolver interface {
	// ResolveTargets returns the lights behind a device handle, in the
	// hub's enumeration order. A plain light resolves to itself; a group
	// proxy resolves to its members and never includes the proxy.
	ResolveTargets(ctx context.Context, device *hub.Device) ([]hub.Device, error)
}

// PrefixResolver infers group membership from display names: a device
// named "Lights" is a group proxy when other lights are named
// "Lights 1", "Lights 2" and so on. The convention is fragile, which is
// why it lives behind the Resolver interface; a structural group lookup
// can replace it without touching the coordinator.
type PrefixResolver struct {
	dir Directory
}

// NewPrefixResolver creates a resolver over the given directory.
func NewPrefixResolver(dir Directory) *PrefixResolver {
	return &PrefixResolver{dir: dir}
}

// ResolveTargets implements Resolver.
func (r *PrefixResolver) ResolveTargets(ctx context.Context, device *hub.Device) ([]hub.Device, error) {
	all, err := r.dir.Devices(ctx)
	if err != nil {
		return nil, err
	}

	prefix := device.Name + " "

	var members []hub.Device
	for _, d := range all {
		if d.ID == device.ID {
			continue
		}
		if !strings.HasPrefix(d.Name, prefix) {
			continue
		}
		if !d.IsLight() {
			continue
		}
		members = append(members, d)
	}

	// No eligible members means the handle is a plain light, not a proxy.
	if len(members) == 0 {
		return []hub.Device{*device}, nil
	}

	return members, nil
}
