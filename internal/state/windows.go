package state

import (
	"time"

	"github.com/woodyard/duskd/internal/kv"
)

// fadeWindow records when an in-flight fade stops being considered active.
type fadeWindow struct {
	ActiveUntil int64 `json:"active_until"` // epoch millis
}

// WindowTracker tracks one fade window per device as an expiry timestamp.
// A stored entry never means "fading" on its own; a window is active only
// while the comparison instant is strictly before ActiveUntil. Two tracker
// instances exist side by side, one for fades this daemon initiates and one
// for fades driven by the adaptive-control loop.
type WindowTracker struct {
	store *TypedStore[fadeWindow]
	now   func() time.Time
}

// NewWindowTracker creates a tracker over the given bucket.
// The now function supplies the current instant; pass time.Now outside tests.
func NewWindowTracker(bucket kv.Bucket, now func() time.Time) *WindowTracker {
	if now == nil {
		now = time.Now
	}
	return &WindowTracker{
		store: NewTypedStore[fadeWindow](bucket),
		now:   now,
	}
}

// MarkActive records a fade window ending duration+buffer from now and
// returns the recorded expiry in epoch millis.
func (t *WindowTracker) MarkActive(deviceID string, duration, buffer time.Duration) (int64, error) {
	activeUntil := t.now().UnixMilli() + duration.Milliseconds() + buffer.Milliseconds()
	if err := t.store.Set(deviceID, fadeWindow{ActiveUntil: activeUntil}); err != nil {
		return 0, err
	}
	return activeUntil, nil
}

// Clear expires the window immediately, used when a fade is skipped so
// stale consumers don't believe one is pending.
func (t *WindowTracker) Clear(deviceID string) error {
	return t.store.Set(deviceID, fadeWindow{ActiveUntil: 0})
}

// IsActive reports whether a fade window covers the given instant.
// A device with no entry is never active.
func (t *WindowTracker) IsActive(deviceID string, at time.Time) (bool, error) {
	window, ok, err := t.store.Get(deviceID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return at.UnixMilli() < window.ActiveUntil, nil
}

// ActiveUntil returns the recorded expiry for a device in epoch millis;
// ok is false if no window was ever recorded.
func (t *WindowTracker) ActiveUntil(deviceID string) (int64, bool, error) {
	window, ok, err := t.store.Get(deviceID)
	if err != nil || !ok {
		return 0, ok, err
	}
	return window.ActiveUntil, true, nil
}
