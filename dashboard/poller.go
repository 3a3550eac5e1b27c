package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/consorcioci/viernes/client"
)

// DefaultPollInterval is the summary refresh period.
const DefaultPollInterval = 30 * time.Second

// PanelFetcher loads the dashboard summary counters.
type PanelFetcher func(ctx context.Context) (client.PanelInfo, error)

// Snapshot is the last successfully fetched summary.
type Snapshot struct {
	Info      client.PanelInfo
	FetchedAt time.Time
}

// Poller refreshes the dashboard summary at a fixed interval. A tick that
// fires while the previous fetch is still running is skipped. Failures are
// logged and leave the last snapshot in place.
type Poller struct {
	fetch    PanelFetcher
	interval time.Duration
	logger   *slog.Logger
	onUpdate func(Snapshot)

	mu      sync.RWMutex
	latest  Snapshot
	have    bool
	running atomic.Bool
	wg      sync.WaitGroup
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the refresh period.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger for fetch failures.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOnUpdate registers fn to run after every successful fetch. fn runs on
// the fetching goroutine.
func WithOnUpdate(fn func(Snapshot)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

// NewPoller returns a poller that calls fetch on every tick.
func NewPoller(fetch PanelFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetch:    fetch,
		interval: DefaultPollInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "panel-poller")
	return p
}

// Run fetches immediately and then on every tick until ctx is done. It
// waits for an outstanding fetch before returning ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Latest returns the most recent snapshot, if any fetch has succeeded.
func (p *Poller) Latest() (Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.have
}

func (p *Poller) tick(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug("previous fetch still running, skipping tick")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.running.Store(false)

		info, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Warn("panel refresh failed", "error", err)
			}
			return
		}
		snap := Snapshot{Info: info, FetchedAt: time.Now()}
		p.mu.Lock()
		p.latest, p.have = snap, true
		p.mu.Unlock()
		if p.onUpdate != nil {
			p.onUpdate(snap)
		}
	}()
}
