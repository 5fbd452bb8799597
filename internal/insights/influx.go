package insights

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"
)

// Influx is a Recorder writing points through the non-blocking WriteAPI.
// Points are batched and flushed in the background; write failures are
// logged and never reach callers.
type Influx struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// NewInflux creates a recorder for the given InfluxDB instance.
func NewInflux(url, token, org, bucket string) *Influx {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)

	r := &Influx{
		client:   client,
		writeAPI: writeAPI,
	}

	go r.drainErrors(writeAPI.Errors())

	log.Info().Str("url", url).Str("bucket", bucket).Msg("Insights recording enabled")

	return r
}

func (r *Influx) drainErrors(errs <-chan error) {
	for err := range errs {
		log.Warn().Err(err).Msg("Insights write failed")
	}
}

// Fade implements Recorder.
func (r *Influx) Fade(deviceID string, outcome string, targets, failed int, duration time.Duration) {
	point := write.NewPoint(
		"fade",
		map[string]string{
			"device_id": deviceID,
			"outcome":   outcome,
		},
		map[string]any{
			"targets":     targets,
			"failed":      failed,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	)
	r.writeAPI.WritePoint(point)
}

// Restore implements Recorder.
func (r *Influx) Restore(deviceID string, outcome string) {
	point := write.NewPoint(
		"restore",
		map[string]string{
			"device_id": deviceID,
			"outcome":   outcome,
		},
		map[string]any{
			"count": 1,
		},
		time.Now(),
	)
	r.writeAPI.WritePoint(point)
}

// Override implements Recorder.
func (r *Influx) Override(deviceID string, manual bool) {
	point := write.NewPoint(
		"manual_override",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]any{
			"manual": manual,
		},
		time.Now(),
	)
	r.writeAPI.WritePoint(point)
}

// Close flushes pending points and shuts the client down.
func (r *Influx) Close() {
	r.writeAPI.Flush()
	r.client.Close()
}
