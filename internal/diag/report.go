// Package diag renders a read-only status report joining adaptive-lighting
// state, saved snapshots, fade windows and live device readings.
package diag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woodyard/duskd/internal/fade"
	"github.com/woodyard/duskd/internal/hub"
	"github.com/woodyard/duskd/internal/state"
)

// Reporter joins the per-device stores with live hub readings.
// Reporting has no side effects and must render something for every
// registered device, however little the hub still knows about it.
type Reporter struct {
	dir       fade.Directory
	registry  *state.Registry
	snapshots *state.Snapshots
	windows   *state.WindowTracker
	alWindows *state.WindowTracker
	now       func() time.Time
}

// NewReporter creates a reporter over the given stores.
// The now function supplies the instant fade windows are compared against;
// pass time.Now outside tests.
func NewReporter(dir fade.Directory, registry *state.Registry, snapshots *state.Snapshots, windows, alWindows *state.WindowTracker, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		dir:       dir,
		registry:  registry,
		snapshots: snapshots,
		windows:   windows,
		alWindows: alWindows,
		now:       now,
	}
}

type row struct {
	id      string
	name    string
	mode    string
	profile string
	dim     string
	temp    string
	saved   string
	fading  string
}

// Report renders the status of every device the adaptive-control loop has
// ever observed, one line each, with n/a placeholders for absent fields,
// followed by an auto/manual summary.
func (r *Reporter) Report(ctx context.Context) (string, error) {
	states, err := r.registry.All()
	if err != nil {
		return "", fmt.Errorf("failed to read adaptive state: %w", err)
	}

	var b strings.Builder
	b.WriteString("Adaptive lighting status\n\n")

	if len(states) == 0 {
		b.WriteString("no devices registered\n")
		b.WriteString("0 auto, 0 manual\n")
		return b.String(), nil
	}

	now := r.now()
	rows := make([]row, 0, len(states))
	manual := 0

	for id, st := range states {
		rw := row{
			id:      id,
			mode:    "auto",
			profile: "n/a",
			dim:     "n/a",
			temp:    "n/a",
			saved:   "n/a",
			fading:  "idle",
		}

		if st.ManualOverride {
			rw.mode = "manual"
			manual++
		}
		if st.LastAppliedProfile != nil {
			rw.profile = *st.LastAppliedProfile
		}

		rw.name = r.resolveName(ctx, id, &rw)
		rw.saved = r.savedSettings(id)

		if r.anyWindowActive(id, now) {
			rw.fading = "fading"
		}

		rows = append(rows, rw)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].name != rows[j].name {
			return rows[i].name < rows[j].name
		}
		return rows[i].id < rows[j].id
	})

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODE\tPROFILE\tDIM\tTEMP\tSAVED\tFADE")
	for _, rw := range rows {
		fmt.Fprintf(tw, "%s\t[%s]\t%s\t%s\t%s\t%s\t%s\n",
			rw.name, rw.mode, rw.profile, rw.dim, rw.temp, rw.saved, rw.fading)
	}
	tw.Flush()

	fmt.Fprintf(&b, "\n%d auto, %d manual\n", len(rows)-manual, manual)

	return b.String(), nil
}

// resolveName looks the device up on the hub, filling in live readings as
// a side effect. Devices the hub no longer knows render under a short
// identifier label.
func (r *Reporter) resolveName(ctx context.Context, id string, rw *row) string {
	device, err := r.dir.Device(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("device", id).Msg("Device unknown to hub, using short label")
		return shortLabel(id)
	}

	if v, ok := device.CapabilityFloat(hub.CapDim); ok {
		rw.dim = fmt.Sprintf("%.2f", v)
	}
	if v, ok := device.CapabilityFloat(hub.CapTemperature); ok {
		rw.temp = fmt.Sprintf("%.2f", v)
	}

	return device.Name
}

func (r *Reporter) savedSettings(id string) string {
	snap, ok, err := r.snapshots.Read(id)
	if err != nil {
		log.Warn().Err(err).Str("device", id).Msg("Failed to read snapshot for report")
		return "n/a"
	}
	if !ok {
		return "n/a"
	}
	if snap.Temperature != nil {
		return fmt.Sprintf("dim=%.2f temp=%.2f", snap.Dim, *snap.Temperature)
	}
	return fmt.Sprintf("dim=%.2f", snap.Dim)
}

// anyWindowActive checks both fade-window origins; the trackers are not
// synchronized with each other and either one counts.
func (r *Reporter) anyWindowActive(id string, now time.Time) bool {
	for _, tracker := range []*state.WindowTracker{r.windows, r.alWindows} {
		active, err := tracker.IsActive(id, now)
		if err != nil {
			log.Warn().Err(err).Str("device", id).Msg("Failed to read fade window for report")
			continue
		}
		if active {
			return true
		}
	}
	return false
}

// shortLabel abbreviates a device identifier for display.
func shortLabel(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id
	}
	return string(runes[:8])
}
