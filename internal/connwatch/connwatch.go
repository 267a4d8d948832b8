// Package connwatch watches the agent's upstream dependencies, the
// model backend and the Moodniko content API, and tracks whether each
// one is reachable. Neither dependency gates request handling; the
// agent keeps answering (with degraded fallbacks) while a watcher
// reports down, and the health endpoint exposes what the watchers see.
//
// This sits above httpkit's per-request retry. The transport retries
// sub-second dial blips; a watcher rides out whole outages, from an
// Ollama restart to a multi-minute free-tier cold start. A fresh
// watcher probes with exponential backoff until the service answers or
// the attempt budget runs out, then settles into slow steady-state
// polling either way.
package connwatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ProbeFunc checks one service. nil means reachable.
type ProbeFunc func(ctx context.Context) error

// BackoffConfig controls probe timing. Zero fields take defaults.
type BackoffConfig struct {
	InitialDelay time.Duration // first retry delay during startup
	MaxDelay     time.Duration // backoff ceiling
	Multiplier   float64       // delay growth factor
	MaxRetries   int           // startup attempts before giving up to polling
	PollInterval time.Duration // steady-state probe interval
	ProbeTimeout time.Duration // per-probe deadline
}

// DefaultBackoffConfig is the schedule used when a field is zero:
// 2s, 4s, 8s, 16s, 32s, then 60s capped, ten startup attempts,
// one-minute polling afterwards.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		MaxRetries:   10,
		PollInterval: 60 * time.Second,
		ProbeTimeout: 10 * time.Second,
	}
}

func (b BackoffConfig) withDefaults() BackoffConfig {
	d := DefaultBackoffConfig()
	if b.InitialDelay <= 0 {
		b.InitialDelay = d.InitialDelay
	}
	if b.MaxDelay <= 0 {
		b.MaxDelay = d.MaxDelay
	}
	if b.Multiplier <= 0 {
		b.Multiplier = d.Multiplier
	}
	if b.MaxRetries <= 0 {
		b.MaxRetries = d.MaxRetries
	}
	if b.PollInterval <= 0 {
		b.PollInterval = d.PollInterval
	}
	if b.ProbeTimeout <= 0 {
		b.ProbeTimeout = d.ProbeTimeout
	}
	return b
}

// WatcherConfig describes one service to watch.
type WatcherConfig struct {
	// Name appears in logs and health output ("model", "content-api").
	Name string

	// Probe must be safe for concurrent use.
	Probe ProbeFunc

	Backoff BackoffConfig

	// OnReady and OnDown fire on state transitions, each in its own
	// goroutine. Either may be nil.
	OnReady func()
	OnDown  func(err error)

	Logger *slog.Logger
}

// ServiceStatus is a snapshot of one watched service for the health
// endpoint.
type ServiceStatus struct {
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
	LastCheck time.Time `json:"last_check"`
	LastError string    `json:"last_error,omitempty"`
}

// Watcher tracks the reachability of a single service.
type Watcher struct {
	name    string
	probeFn ProbeFunc
	backoff BackoffConfig
	onReady func()
	onDown  func(error)
	logger  *slog.Logger

	ready  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	lastErr   error
	lastCheck time.Time
}

// IsReady reports the last observed state of the service.
func (w *Watcher) IsReady() bool { return w.ready.Load() }

// LastError returns the most recent probe error, nil when healthy.
func (w *Watcher) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// Status snapshots the watcher for health reporting.
func (w *Watcher) Status() ServiceStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := ServiceStatus{
		Name:      w.name,
		Ready:     w.ready.Load(),
		LastCheck: w.lastCheck,
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}

// Stop cancels the watcher and waits for its goroutine.
func (w *Watcher) Stop() {
	w.cancel()
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	w.connect(ctx)
	w.poll(ctx)
}

// connect is the startup phase: probe with growing delays until the
// service answers or the attempt budget is spent.
func (w *Watcher) connect(ctx context.Context) {
	delay := w.backoff.InitialDelay

	for attempt := 1; attempt <= w.backoff.MaxRetries; attempt++ {
		err := w.probe(ctx)
		w.record(err)

		if err == nil {
			w.ready.Store(true)
			w.logger.Info("service connected", "service", w.name, "after_attempts", attempt)
			if w.onReady != nil {
				go w.onReady()
			}
			return
		}

		if attempt == w.backoff.MaxRetries {
			w.logger.Info("service unreachable at startup, will keep polling",
				"service", w.name, "attempts", attempt, "error", err)
			return
		}

		w.logger.Debug("startup probe failed",
			"service", w.name, "attempt", attempt, "next_delay", delay.String(), "error", err)

		if !sleepCtx(ctx, delay) {
			return
		}
		if delay = time.Duration(float64(delay) * w.backoff.Multiplier); delay > w.backoff.MaxDelay {
			delay = w.backoff.MaxDelay
		}
	}
}

// poll is the steady-state phase: probe on a fixed interval and fire
// callbacks on transitions.
func (w *Watcher) poll(ctx context.Context) {
	ticker := time.NewTicker(w.backoff.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.probe(ctx)
			w.record(err)
			w.transition(err)
		}
	}
}

// transition updates the ready flag and fires the matching callback
// when the observed state flips.
func (w *Watcher) transition(err error) {
	switch healthy := err == nil; {
	case healthy && !w.ready.Load():
		w.ready.Store(true)
		w.logger.Info("service recovered", "service", w.name)
		if w.onReady != nil {
			go w.onReady()
		}
	case !healthy && w.ready.Load():
		w.ready.Store(false)
		w.logger.Info("service became unreachable", "service", w.name, "error", err)
		if w.onDown != nil {
			go w.onDown(err)
		}
	case !healthy:
		w.logger.Debug("service still unreachable", "service", w.name, "error", err)
	}
}

func (w *Watcher) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, w.backoff.ProbeTimeout)
	defer cancel()
	return w.probeFn(probeCtx)
}

func (w *Watcher) record(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.lastCheck = time.Now()
	w.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Manager owns the set of watchers and aggregates their status.
type Manager struct {
	mu       sync.RWMutex
	watchers map[string]*Watcher
	logger   *slog.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		watchers: make(map[string]*Watcher),
		logger:   logger,
	}
}

// Watch starts a watcher goroutine for cfg and registers it under
// cfg.Name. It runs until ctx is cancelled or Stop is called. A
// missing Name or Probe is a programming error and panics.
func (m *Manager) Watch(ctx context.Context, cfg WatcherConfig) *Watcher {
	if cfg.Name == "" {
		panic("connwatch: WatcherConfig.Name must not be empty")
	}
	if cfg.Probe == nil {
		panic("connwatch: WatcherConfig.Probe must not be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = m.logger
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		name:    cfg.Name,
		probeFn: cfg.Probe,
		backoff: cfg.Backoff.withDefaults(),
		onReady: cfg.OnReady,
		onDown:  cfg.OnDown,
		logger:  logger,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(watchCtx)

	m.mu.Lock()
	m.watchers[cfg.Name] = w
	m.mu.Unlock()

	return w
}

// Status reports every watched service keyed by name.
func (m *Manager) Status() map[string]ServiceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]ServiceStatus, len(m.watchers))
	for name, w := range m.watchers {
		status[name] = w.Status()
	}
	return status
}

// Stop shuts down every watcher and waits for each goroutine.
func (m *Manager) Stop() {
	m.mu.RLock()
	watchers := make([]*Watcher, 0, len(m.watchers))
	for _, w := range m.watchers {
		watchers = append(watchers, w)
	}
	m.mu.RUnlock()

	for _, w := range watchers {
		w.Stop()
	}
}
