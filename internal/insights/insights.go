// Package insights records fade and override history as time-series
// points, mirroring the hub's own device insights.
package insights

import "time"

// Recorder receives lifecycle events. Implementations must not block the
// caller; recording is bookkeeping, never part of an operation's outcome.
type Recorder interface {
	// Fade records the outcome of a fade-out invocation.
	Fade(deviceID string, outcome string, targets, failed int, duration time.Duration)
	// Restore records the outcome of a restore invocation.
	Restore(deviceID string, outcome string)
	// Override records a manual-override transition.
	Override(deviceID string, manual bool)
}

// Nop is a Recorder that discards everything, used when insights
// are disabled.
type Nop struct{}

// Fade implements Recorder.
func (Nop) Fade(string, string, int, int, time.Duration) {}

// Restore implements Recorder.
func (Nop) Restore(string, string) {}

// Override implements Recorder.
func (Nop) Override(string, bool) {}
