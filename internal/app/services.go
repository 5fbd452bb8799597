package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woodyard/duskd/internal/config"
	"github.com/woodyard/duskd/internal/db"
	"github.com/woodyard/duskd/internal/diag"
	"github.com/woodyard/duskd/internal/fade"
	"github.com/woodyard/duskd/internal/hub"
	"github.com/woodyard/duskd/internal/insights"
	"github.com/woodyard/duskd/internal/kv"
	"github.com/woodyard/duskd/internal/notify"
	"github.com/woodyard/duskd/internal/server"
	"github.com/woodyard/duskd/internal/state"
)

// Bucket names on the KV substrate; keys are device identifiers.
const (
	bucketSnapshots     = "snapshots"
	bucketFadeWindows   = "fade_windows"
	bucketALFadeWindows = "al_fade_windows"
	bucketAdaptiveState = "adaptive_state"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB *db.DB
	KV *kv.Manager

	// Per-device stores
	Snapshots *state.Snapshots
	Windows   *state.WindowTracker
	ALWindows *state.WindowTracker
	Registry  *state.Registry

	// Hub and outbound sinks
	Hub      *hub.Client
	Notifier notify.Sink
	Insights insights.Recorder

	// Core components
	Coordinator *fade.Coordinator
	Reporter    *diag.Reporter
	Server      *server.Server
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database and KV substrate
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database
	s.KV = kv.NewManager(database.DB)

	// Per-device stores, one persistent bucket per purpose
	s.Snapshots = state.NewSnapshots(s.KV.Bucket(bucketSnapshots, true))
	s.Windows = state.NewWindowTracker(s.KV.Bucket(bucketFadeWindows, true), time.Now)
	s.ALWindows = state.NewWindowTracker(s.KV.Bucket(bucketALFadeWindows, true), time.Now)
	s.Registry = state.NewRegistry(s.KV.Bucket(bucketAdaptiveState, true))

	// Hub client
	s.Hub = hub.NewClient(cfg.Hub.Address, cfg.Hub.Token, cfg.Hub.Timeout.Duration())

	// Notification sink
	s.Notifier = notify.Nop{}
	if cfg.Notify.Enabled {
		mqttSink, err := notify.NewMQTT(cfg.Notify.Broker, cfg.Notify.ClientID, cfg.Notify.TopicPrefix, byte(cfg.Notify.QoS))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Notifier = mqttSink
	}

	// Insights recorder
	s.Insights = insights.Nop{}
	if cfg.Insights.Enabled {
		s.Insights = insights.NewInflux(cfg.Insights.URL, cfg.Insights.Token, cfg.Insights.Org, cfg.Insights.Bucket)
	}

	// Fade coordinator
	s.Coordinator = fade.NewCoordinator(fade.Config{
		Directory:       s.Hub,
		Controller:      s.Hub,
		Snapshots:       s.Snapshots,
		Windows:         s.Windows,
		ALWindows:       s.ALWindows,
		Notifier:        s.Notifier,
		Insights:        s.Insights,
		DefaultDuration: cfg.Fade.DefaultDuration.Duration(),
		DefaultBuffer:   cfg.Fade.WindowBuffer.Duration(),
		RateLimitRPS:    cfg.Fade.RateLimitRPS,
	})

	// Diagnostics reporter
	s.Reporter = diag.NewReporter(s.Hub, s.Registry, s.Snapshots, s.Windows, s.ALWindows, time.Now)

	// HTTP trigger surface
	s.Server = server.New(
		cfg.Server.Host,
		cfg.Server.Port,
		s.Coordinator,
		s.Reporter,
		s.Registry,
		s.ALWindows,
		s.Insights,
		cfg.Fade.DefaultDuration.Duration(),
		cfg.Fade.WindowBuffer.Duration(),
	)

	return s, nil
}

// Start verifies hub connectivity and starts the API server.
// The onFatalError callback is called when the server fails.
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	if err := s.Hub.Connect(ctx); err != nil {
		return err
	}

	go func() {
		if err := s.Server.Run(ctx, s.cfg.ShutdownTimeout.Duration()); err != nil {
			onFatalError(err)
		}
	}()

	return nil
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if mqttSink, ok := s.Notifier.(*notify.MQTT); ok {
		mqttSink.Close()
	}
	if influx, ok := s.Insights.(*insights.Influx); ok {
		influx.Close()
	}
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
