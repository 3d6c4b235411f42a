package targets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultInterval is how often the target file is rewritten.
const DefaultInterval = 30 * time.Second

// ErrAlreadyStarted is returned by Start on a running syncer.
var ErrAlreadyStarted = errors.New("target sync already started")

// Config configures a Syncer.
type Config struct {
	// File is the file_sd path, for example /etc/prometheus/targets/services.json.
	File string

	// Interval between background syncs.
	// Default: 30s
	Interval time.Duration
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.File == "" {
		return errors.New("target file is required")
	}
	return nil
}

// ApplyDefaults applies default values to unset configuration fields.
func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
}

// Status describes the syncer and its most recent run.
type Status struct {
	Enabled     bool       `json:"enabled"`
	File        string     `json:"file"`
	Interval    string     `json:"interval"`
	Running     bool       `json:"running"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	TargetCount int        `json:"target_count"`
	LastError   string     `json:"last_error,omitempty"`
}

// Result is the outcome of a single sync.
type Result struct {
	TargetCount int       `json:"target_count"`
	File        string    `json:"file"`
	SyncedAt    time.Time `json:"synced_at"`
}

// Syncer periodically rewrites the target file from the service registry.
// Sync may be called concurrently with the background loop.
type Syncer struct {
	source Source
	cfg    Config

	syncMu sync.Mutex // serialises writes to cfg.File

	mu     sync.RWMutex
	status Status

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncer validates cfg and returns a stopped syncer.
func NewSyncer(source Source, cfg Config) (*Syncer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Syncer{
		source: source,
		cfg:    cfg,
		status: Status{Enabled: true, File: cfg.File, Interval: cfg.Interval.String()},
	}, nil
}

// Start runs an initial sync and then syncs every interval until Stop is
// called or ctx is cancelled.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status.Running {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status.Running = true
	s.mu.Unlock()

	if _, err := s.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("Initial target sync failed")
	}

	s.wg.Add(1)
	go s.loop(loopCtx)

	log.Info().
		Str("file", s.cfg.File).
		Dur("interval", s.cfg.Interval).
		Msg("Prometheus target sync started")

	return nil
}

// Stop halts the background loop and waits for it to exit.
func (s *Syncer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.status.Running = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Prometheus target sync stopped")
			return

		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to sync Prometheus targets")
			}
		}
	}
}

// Sync writes the target file now.
func (s *Syncer) Sync(ctx context.Context) (*Result, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	result, err := s.sync(ctx)

	s.mu.Lock()
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
		s.status.LastSyncAt = &result.SyncedAt
		s.status.TargetCount = result.TargetCount
	}
	s.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	telemetry.GetMetrics().TargetSyncsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", outcome)))

	return result, err
}

func (s *Syncer) sync(ctx context.Context) (*Result, error) {
	targets, err := Collect(ctx, s.source)
	if err != nil {
		return nil, err
	}

	data, err := Encode(s.cfg.File, Groups(targets))
	if err != nil {
		return nil, err
	}

	if err := WriteFile(s.cfg.File, data); err != nil {
		return nil, err
	}

	telemetry.GetMetrics().TargetsWritten.Record(ctx, int64(len(targets)))

	log.Debug().
		Int("targets", len(targets)).
		Str("file", s.cfg.File).
		Msg("Synced Prometheus targets")

	return &Result{TargetCount: len(targets), File: s.cfg.File, SyncedAt: time.Now()}, nil
}

// Status returns a snapshot of the syncer state.
func (s *Syncer) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.status
	if status.LastSyncAt != nil {
		t := *status.LastSyncAt
		status.LastSyncAt = &t
	}
	return status
}
