package fade

import (
	"context"
	"fmt"
	"time"

	"github.com/woodyard/duskd/internal/hub"
	"github.com/woodyard/duskd/internal/kv"
	"github.com/woodyard/duskd/internal/state"
)

type fakeDirectory struct {
	devices []hub.Device
	listErr error
}

func (f *fakeDirectory) Device(_ context.Context, id string) (*hub.Device, error) {
	for i := range f.devices {
		if f.devices[i].ID == id {
			d := f.devices[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", hub.ErrDeviceNotFound, id)
}

func (f *fakeDirectory) Devices(_ context.Context) ([]hub.Device, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

type capSet struct {
	deviceID   string
	capability string
	value      any
}

type moveCall struct {
	deviceID   string
	capability string
	target     float64
	duration   time.Duration
}

type fakeController struct {
	sets  []capSet
	moves []moveCall

	failMove map[string]error // deviceID -> error to return from MoveCapability
	failSet  map[string]error // deviceID -> error to return from SetCapability

	onMove func(deviceID string) // called before recording, for ordering asserts
}

func (f *fakeController) SetCapability(_ context.Context, deviceID, capabilityID string, value any) error {
	if err := f.failSet[deviceID]; err != nil {
		return err
	}
	f.sets = append(f.sets, capSet{deviceID: deviceID, capability: capabilityID, value: value})
	return nil
}

func (f *fakeController) MoveCapability(_ context.Context, deviceID, capabilityID string, target float64, duration time.Duration) error {
	if f.onMove != nil {
		f.onMove(deviceID)
	}
	if err := f.failMove[deviceID]; err != nil {
		return err
	}
	f.moves = append(f.moves, moveCall{deviceID: deviceID, capability: capabilityID, target: target, duration: duration})
	return nil
}

// light builds a light device with a dim capability and an optional
// temperature capability.
func light(id, name string, dim float64, temperature *float64) hub.Device {
	caps := map[string]hub.Capability{
		hub.CapOnOff: {ID: hub.CapOnOff, Value: dim > 0, Getable: true, Setable: true},
		hub.CapDim:   {ID: hub.CapDim, Value: dim, Getable: true, Setable: true},
	}
	if temperature != nil {
		caps[hub.CapTemperature] = hub.Capability{ID: hub.CapTemperature, Value: *temperature, Getable: true, Setable: true}
	}
	return hub.Device{
		ID:           id,
		Name:         name,
		Class:        hub.ClassLight,
		Available:    true,
		Capabilities: caps,
	}
}

type testEnv struct {
	dir       *fakeDirectory
	ctrl      *fakeController
	snapshots *state.Snapshots
	windows   *state.WindowTracker
	alWindows *state.WindowTracker
	now       time.Time
}

func newTestCoordinator(devices ...hub.Device) (*Coordinator, *testEnv) {
	env := &testEnv{
		dir:  &fakeDirectory{devices: devices},
		ctrl: &fakeController{failMove: map[string]error{}, failSet: map[string]error{}},
		now:  time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	env.snapshots = state.NewSnapshots(kv.NewMemoryBucket("snapshots"))
	env.windows = state.NewWindowTracker(kv.NewMemoryBucket("fade_windows"), clock)
	env.alWindows = state.NewWindowTracker(kv.NewMemoryBucket("al_fade_windows"), clock)

	c := NewCoordinator(Config{
		Directory:  env.dir,
		Controller: env.ctrl,
		Snapshots:  env.snapshots,
		Windows:    env.windows,
		ALWindows:  env.alWindows,
		Now:        clock,
	})

	return c, env
}

func float(v float64) *float64 {
	return &v
}
