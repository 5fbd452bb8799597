package fade

import (
	"fmt"
	"strings"
	"time"
)

// Outcome describes what a fade-out or restore request did.
type Outcome string

const (
	// OutcomeFaded means timed transitions were delegated to the hub.
	OutcomeFaded Outcome = "faded"
	// OutcomeAlreadyOff means the light was effectively off, so the fade
	// was skipped and the device switched off directly.
	OutcomeAlreadyOff Outcome = "already-off"
	// OutcomeRestored means pre-fade settings were re-applied.
	OutcomeRestored Outcome = "restored"
	// OutcomeSuppressed means a restore was skipped because a fade window
	// was still active.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeNoSnapshot means a restore found nothing to re-apply.
	OutcomeNoSnapshot Outcome = "no-snapshot"
)

// TargetOutcome describes what happened to one resolved target.
type TargetOutcome string

const (
	// TargetDelegated means the hub accepted the timed transition.
	TargetDelegated TargetOutcome = "delegated"
	// TargetFallback means delegation failed and the brightness was set
	// to zero instantaneously instead.
	TargetFallback TargetOutcome = "fallback"
	// TargetFailed means neither delegation nor fallback reached the target.
	TargetFailed TargetOutcome = "failed"
)

// TargetResult is the per-target entry of a fan-out.
type TargetResult struct {
	DeviceID string        `json:"device_id"`
	Name     string        `json:"name"`
	Outcome  TargetOutcome `json:"outcome"`
	Error    string        `json:"error,omitempty"`
}

// Result is the outcome of one coordinator invocation.
type Result struct {
	InvocationID string         `json:"invocation_id"`
	DeviceID     string         `json:"device_id"`
	DeviceName   string         `json:"device_name"`
	Outcome      Outcome        `json:"outcome"`
	Duration     time.Duration  `json:"-"`
	DurationMs   int64          `json:"duration_ms,omitempty"`
	Targets      []TargetResult `json:"targets,omitempty"`
	ActiveUntil  int64          `json:"active_until,omitempty"` // epoch millis
}

// Delegated returns how many targets accepted a timed transition.
func (r *Result) Delegated() int {
	n := 0
	for _, t := range r.Targets {
		if t.Outcome == TargetDelegated {
			n++
		}
	}
	return n
}

// Failed returns how many targets could not be reached at all.
func (r *Result) Failed() int {
	n := 0
	for _, t := range r.Targets {
		if t.Outcome == TargetFailed {
			n++
		}
	}
	return n
}

// Summary renders the human-readable outcome line surfaced to callers.
func (r *Result) Summary() string {
	switch r.Outcome {
	case OutcomeAlreadyOff:
		return fmt.Sprintf("%s is already off, switched off without fading", r.DeviceName)
	case OutcomeFaded:
		var b strings.Builder
		fmt.Fprintf(&b, "fading %s to off over %s", r.DeviceName, r.Duration)
		if len(r.Targets) > 1 {
			fmt.Fprintf(&b, " (%d targets: %d delegated", len(r.Targets), r.Delegated())
			if n := r.Failed(); n > 0 {
				fmt.Fprintf(&b, ", %d failed", n)
			}
			b.WriteString(")")
		}
		return b.String()
	case OutcomeRestored:
		return fmt.Sprintf("restored %s to pre-fade settings", r.DeviceName)
	case OutcomeSuppressed:
		return fmt.Sprintf("restore of %s suppressed, a fade is still in flight", r.DeviceName)
	case OutcomeNoSnapshot:
		return fmt.Sprintf("nothing to restore for %s, no snapshot saved", r.DeviceName)
	default:
		return string(r.Outcome)
	}
}
