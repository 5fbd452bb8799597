// Package fade coordinates light fade-outs: it snapshots pre-fade settings,
// records fade windows and delegates timed transitions to the hub, fanning
// out over group members resolved by naming convention.
package fade

import (
	"context"
	"time"

	"github.com/woodyard/duskd/internal/hub"
)

// Directory is the device-lookup side of the hub consumed by this package.
// *hub.Client satisfies it.
type Directory interface {
	Device(ctx context.Context, id string) (*hub.Device, error)
	Devices(ctx context.Context) ([]hub.Device, error)
}

// Controller is the capability-mutation side of the hub consumed by this
// package. *hub.Client satisfies it.
type Controller interface {
	SetCapability(ctx context.Context, deviceID, capabilityID string, value any) error
	MoveCapability(ctx context.Context, deviceID, capabilityID string, target float64, duration time.Duration) error
}
