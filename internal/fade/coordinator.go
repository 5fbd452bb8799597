package fade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/woodyard/duskd/internal/hub"
	"github.com/woodyard/duskd/internal/insights"
	"github.com/woodyard/duskd/internal/notify"
	"github.com/woodyard/duskd/internal/state"
)

// ErrNoDevice is returned when a request carries no device identifier.
var ErrNoDevice = errors.New("no device identifier supplied")

// offThreshold is the brightness at or below which a light counts as
// effectively off. Driving a hardware fade on an already-dark light is
// wasteful and flickers on some drivers, so such lights are switched off
// directly instead.
const offThreshold = 0.05

// Config carries the coordinator's collaborators and tunables.
type Config struct {
	Directory  Directory
	Controller Controller
	Resolver   Resolver          // defaults to the name-prefix resolver
	Snapshots  *state.Snapshots
	Windows    *state.WindowTracker // fades initiated by this coordinator
	ALWindows  *state.WindowTracker // fades driven by the adaptive-control loop
	Notifier   notify.Sink
	Insights   insights.Recorder

	DefaultDuration time.Duration // fade duration when the request omits one
	DefaultBuffer   time.Duration // grace period appended to every fade window
	RateLimitRPS    float64       // hub request rate during fan-out
	Now             func() time.Time
}

// Coordinator orchestrates fade-outs and restores. A fade-out is
// fire-and-forget: the hub performs the transition in hardware, and the
// call returns as soon as the state writes and delegations are issued.
type Coordinator struct {
	dir       Directory
	ctrl      Controller
	resolver  Resolver
	snapshots *state.Snapshots
	windows   *state.WindowTracker
	alWindows *state.WindowTracker
	notifier  notify.Sink
	insights  insights.Recorder
	limiter   *rate.Limiter

	defaultDuration time.Duration
	defaultBuffer   time.Duration
	now             func() time.Time
}

// NewCoordinator creates a coordinator from the given config.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Resolver == nil {
		cfg.Resolver = NewPrefixResolver(cfg.Directory)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Nop{}
	}
	if cfg.Insights == nil {
		cfg.Insights = insights.Nop{}
	}
	if cfg.DefaultDuration == 0 {
		cfg.DefaultDuration = 60 * time.Second
	}
	if cfg.DefaultBuffer == 0 {
		cfg.DefaultBuffer = 5 * time.Second
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10.0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Coordinator{
		dir:             cfg.Directory,
		ctrl:            cfg.Controller,
		resolver:        cfg.Resolver,
		snapshots:       cfg.Snapshots,
		windows:         cfg.Windows,
		alWindows:       cfg.ALWindows,
		notifier:        cfg.Notifier,
		insights:        cfg.Insights,
		limiter:         rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), int(cfg.RateLimitRPS)),
		defaultDuration: cfg.DefaultDuration,
		defaultBuffer:   cfg.DefaultBuffer,
		now:             cfg.Now,
	}
}

// FadeOut snapshots the device's current settings, records a fade window
// and delegates a timed brightness-to-zero transition per resolved target.
// Per-target delegation failures are collected in the result, never raised;
// only an unknown device or a state-store failure returns an error.
func (c *Coordinator) FadeOut(ctx context.Context, deviceID string, duration, buffer time.Duration) (*Result, error) {
	if deviceID == "" {
		return nil, ErrNoDevice
	}

	device, err := c.dir.Device(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if duration <= 0 {
		duration = c.defaultDuration
	}
	if buffer <= 0 {
		buffer = c.defaultBuffer
	}

	res := &Result{
		InvocationID: uuid.NewString(),
		DeviceID:     device.ID,
		DeviceName:   device.Name,
		Duration:     duration,
		DurationMs:   duration.Milliseconds(),
	}

	dim, _ := device.CapabilityFloat(hub.CapDim)
	var temperature *float64
	if v, ok := device.CapabilityFloat(hub.CapTemperature); ok {
		temperature = &v
	}

	// Already effectively off: switch off directly, no hardware fade.
	if dim <= offThreshold {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := c.ctrl.SetCapability(ctx, device.ID, hub.CapOnOff, false); err != nil {
			log.Warn().Err(err).
				Str("invocation", res.InvocationID).
				Str("device", device.ID).
				Msg("Failed to switch off already-dark light")
		}
		// Expire the window so nothing believes a fade is pending.
		if err := c.windows.Clear(device.ID); err != nil {
			return nil, fmt.Errorf("failed to clear fade window: %w", err)
		}

		res.Outcome = OutcomeAlreadyOff
		log.Info().
			Str("invocation", res.InvocationID).
			Str("device", device.ID).
			Str("name", device.Name).
			Float64("dim", dim).
			Msg("Fade skipped, light already off")

		c.finishFade(res)
		return res, nil
	}

	// Snapshot under the original identifier, even for a group proxy.
	// Restore operates at the proxy level, members are not snapshotted.
	if err := c.snapshots.Save(device.ID, dim, temperature); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	activeUntil, err := c.windows.MarkActive(device.ID, duration, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to mark fade window: %w", err)
	}
	res.ActiveUntil = activeUntil

	targets, err := c.resolver.ResolveTargets(ctx, device)
	if err != nil {
		// Enumeration failed; fade the handle itself rather than abort.
		log.Warn().Err(err).
			Str("invocation", res.InvocationID).
			Str("device", device.ID).
			Msg("Group resolution failed, fading device directly")
		targets = []hub.Device{*device}
	}

	for _, target := range targets {
		res.Targets = append(res.Targets, c.fadeTarget(ctx, res.InvocationID, target, duration, len(targets) == 1))
	}

	res.Outcome = OutcomeFaded
	log.Info().
		Str("invocation", res.InvocationID).
		Str("device", device.ID).
		Str("name", device.Name).
		Dur("duration", duration).
		Int("targets", len(res.Targets)).
		Int("delegated", res.Delegated()).
		Int("failed", res.Failed()).
		Msg("Fade-out delegated")

	c.finishFade(res)
	return res, nil
}

// fadeTarget delegates one timed transition. For the single-target case a
// delegation failure falls back to an instantaneous set so the light does
// not stay at its pre-fade brightness.
func (c *Coordinator) fadeTarget(ctx context.Context, invocationID string, target hub.Device, duration time.Duration, single bool) TargetResult {
	tr := TargetResult{DeviceID: target.ID, Name: target.Name}

	if err := c.limiter.Wait(ctx); err != nil {
		tr.Outcome = TargetFailed
		tr.Error = err.Error()
		return tr
	}

	err := c.ctrl.MoveCapability(ctx, target.ID, hub.CapDim, 0, duration)
	if err == nil {
		tr.Outcome = TargetDelegated
		return tr
	}

	log.Warn().Err(err).
		Str("invocation", invocationID).
		Str("target", target.ID).
		Str("name", target.Name).
		Msg("Timed transition delegation failed")

	if !single {
		tr.Outcome = TargetFailed
		tr.Error = err.Error()
		return tr
	}

	if fbErr := c.ctrl.SetCapability(ctx, target.ID, hub.CapDim, 0.0); fbErr != nil {
		log.Warn().Err(fbErr).
			Str("invocation", invocationID).
			Str("target", target.ID).
			Msg("Instantaneous fallback failed")
		tr.Outcome = TargetFailed
		tr.Error = fbErr.Error()
		return tr
	}

	tr.Outcome = TargetFallback
	tr.Error = err.Error()
	return tr
}

// Restore re-applies the last saved snapshot to a device, unless a fade
// window from either origin still covers the current instant.
func (c *Coordinator) Restore(ctx context.Context, deviceID string) (*Result, error) {
	if deviceID == "" {
		return nil, ErrNoDevice
	}

	device, err := c.dir.Device(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		InvocationID: uuid.NewString(),
		DeviceID:     device.ID,
		DeviceName:   device.Name,
	}

	now := c.now()
	scriptActive, err := c.windows.IsActive(device.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check fade window: %w", err)
	}
	alActive, err := c.alWindows.IsActive(device.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check adaptive fade window: %w", err)
	}

	if scriptActive || alActive {
		res.Outcome = OutcomeSuppressed
		log.Info().
			Str("invocation", res.InvocationID).
			Str("device", device.ID).
			Bool("script_window", scriptActive).
			Bool("al_window", alActive).
			Msg("Restore suppressed, fade window still active")

		c.finishRestore(res)
		return res, nil
	}

	snap, ok, err := c.snapshots.Read(device.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !ok {
		res.Outcome = OutcomeNoSnapshot
		c.finishRestore(res)
		return res, nil
	}

	for _, set := range []struct {
		capability string
		value      any
		apply      bool
	}{
		{hub.CapOnOff, true, true},
		{hub.CapDim, snap.Dim, true},
		{hub.CapTemperature, derefOrZero(snap.Temperature), snap.Temperature != nil},
	} {
		if !set.apply {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if err := c.ctrl.SetCapability(ctx, device.ID, set.capability, set.value); err != nil {
			log.Warn().Err(err).
				Str("invocation", res.InvocationID).
				Str("device", device.ID).
				Str("capability", set.capability).
				Msg("Failed to re-apply capability")
		}
	}

	res.Outcome = OutcomeRestored
	log.Info().
		Str("invocation", res.InvocationID).
		Str("device", device.ID).
		Str("name", device.Name).
		Float64("dim", snap.Dim).
		Msg("Pre-fade settings restored")

	c.finishRestore(res)
	return res, nil
}

func (c *Coordinator) finishFade(res *Result) {
	c.notifier.Publish("events/fade", res)
	c.insights.Fade(res.DeviceID, string(res.Outcome), len(res.Targets), res.Failed(), res.Duration)
}

func (c *Coordinator) finishRestore(res *Result) {
	c.notifier.Publish("events/restore", res)
	c.insights.Restore(res.DeviceID, string(res.Outcome))
}

func derefOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
