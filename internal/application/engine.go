package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dukapulse/dukapulse/internal/domain/alerts"
	"github.com/dukapulse/dukapulse/internal/domain/forecast"
	"github.com/dukapulse/dukapulse/internal/domain/insights"
	"github.com/dukapulse/dukapulse/internal/domain/rules"
	"github.com/dukapulse/dukapulse/internal/domain/snapshot"
	"github.com/dukapulse/dukapulse/internal/telemetry/metrics"
)

// SnapshotProvider hands the engine a point-in-time read of the shop's
// business counters. Fetch failures are the provider's own concern
// (retries, backoff); the engine just keeps its last snapshot.
type SnapshotProvider interface {
	Fetch(ctx context.Context) (snapshot.Snapshot, error)
}

// Result is the output of one evaluation tick, ready for rendering.
type Result struct {
	Tick        string                      `json:"tick"`
	EvaluatedAt time.Time                   `json:"evaluated_at"`
	Alerts      []alerts.Alert              `json:"alerts"`
	Insights    []insights.Insight          `json:"insights"`
	Forecast    map[string][]forecast.Point `json:"forecast"`
	Trends      []forecast.Trend            `json:"trends"`
}

// Options tunes an engine instance.
type Options struct {
	Interval     time.Duration
	HorizonDays  int
	RetentionCap int
	Thresholds   rules.Thresholds
	Metrics      *metrics.Registry
}

// Engine owns the alert lifecycle store for one dashboard session and
// drives the evaluate-merge-rank cycle on a fixed cadence. All evaluation
// is synchronous; a newer tick's result simply supersedes the older one.
type Engine struct {
	provider SnapshotProvider
	rules    *rules.Engine
	store    *alerts.Store
	opts     Options
	telem    *metrics.Registry

	mu       sync.RWMutex
	lastSnap snapshot.Snapshot
	haveSnap bool
	last     Result

	subsMu sync.Mutex
	subs   []chan Result
}

// New wires an engine from a provider and options. Zero-value options fall
// back to production defaults.
func New(provider SnapshotProvider, opts Options) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = forecast.DefaultHorizonDays
	}
	if opts.RetentionCap <= 0 {
		opts.RetentionCap = alerts.DefaultRetentionCap
	}
	telem := opts.Metrics
	if telem == nil {
		telem = metrics.NewRegistry()
	}
	return &Engine{
		provider: provider,
		rules:    rules.NewEngine(opts.Thresholds),
		store:    alerts.NewStoreWithCap(opts.RetentionCap),
		opts:     opts,
		telem:    telem,
	}
}

// Run polls the provider and evaluates until the context is cancelled.
// The first tick fires immediately so the dashboard is never empty on
// startup.
func (e *Engine) Run(ctx context.Context) {
	log.Info().
		Dur("interval", e.opts.Interval).
		Int("horizon_days", e.opts.HorizonDays).
		Msg("Starting dashboard evaluation loop")

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Evaluation loop stopped")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	snap, err := e.provider.Fetch(ctx)
	if err != nil {
		e.telem.ProviderFailures.Inc()
		e.mu.RLock()
		snap = e.lastSnap
		have := e.haveSnap
		e.mu.RUnlock()
		if !have {
			log.Warn().Msg("Snapshot fetch failed with no prior snapshot; skipping tick")
			return
		}
		log.Warn().Msg("Snapshot fetch failed; evaluating against last snapshot")
	}
	e.Evaluate(snap, time.Now())
}

// Evaluate runs one full pass against the given snapshot and publishes the
// result. Exposed so hosts can force a re-evaluation when their own data
// changes between ticks.
func (e *Engine) Evaluate(snap snapshot.Snapshot, now time.Time) Result {
	started := time.Now()
	tickID := uuid.New().String()[:8]

	snap = snap.Sanitized()

	candidates := e.rules.Evaluate(snap, now)
	for _, c := range candidates {
		e.telem.RuleFirings.WithLabelValues(c.ID).Inc()
	}

	merged := e.store.Merge(candidates, now)
	ranked := alerts.Rank(merged)

	insightList := insights.Rank(insights.Dedupe(insights.Generate(snap, now)))

	res := Result{
		Tick:        tickID,
		EvaluatedAt: now,
		Alerts:      ranked,
		Insights:    insightList,
		Forecast:    forecast.ProjectAll(snap, e.opts.HorizonDays, now),
		Trends:      forecast.Trends(snap),
	}

	e.mu.Lock()
	e.lastSnap = snap
	e.haveSnap = true
	e.last = res
	e.mu.Unlock()

	e.updateGauges(ranked)
	e.telem.EvalTicks.Inc()
	e.telem.EvalDuration.Observe(time.Since(started).Seconds())

	log.Debug().
		Str("tick", tickID).
		Int("alerts", len(ranked)).
		Int("insights", len(insightList)).
		Msg("Evaluation tick complete")

	e.publish(res)
	return res
}

// Latest returns the most recent evaluation result.
func (e *Engine) Latest() Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Acknowledge marks an alert as seen and refreshes the published result.
func (e *Engine) Acknowledge(id string) bool {
	ok := e.store.Acknowledge(id)
	if ok {
		e.refreshAlerts()
	}
	return ok
}

// Dismiss removes an alert permanently and refreshes the published result.
// The condition may re-fire as a fresh alert on a later tick.
func (e *Engine) Dismiss(id string) bool {
	ok := e.store.Dismiss(id)
	if ok {
		e.refreshAlerts()
	}
	return ok
}

// Subscribe returns a channel receiving every published result. Slow
// consumers drop ticks rather than blocking evaluation.
func (e *Engine) Subscribe() <-chan Result {
	ch := make(chan Result, 4)
	e.subsMu.Lock()
	e.subs = append(e.subs, ch)
	e.subsMu.Unlock()
	return ch
}

func (e *Engine) refreshAlerts() {
	ranked := alerts.Rank(e.store.Active())

	e.mu.Lock()
	e.last.Alerts = ranked
	res := e.last
	e.mu.Unlock()

	e.updateGauges(ranked)
	e.publish(res)
}

func (e *Engine) updateGauges(list []alerts.Alert) {
	counts := map[alerts.Kind]int{
		alerts.KindCritical: 0,
		alerts.KindWarning:  0,
		alerts.KindInfo:     0,
		alerts.KindSuccess:  0,
	}
	for _, a := range list {
		counts[a.Kind]++
	}
	for kind, n := range counts {
		e.telem.ActiveAlerts.WithLabelValues(string(kind)).Set(float64(n))
	}
	e.telem.UnacknowledgedAlerts.Set(float64(e.store.UnacknowledgedCount()))
}

func (e *Engine) publish(res Result) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- res:
		default:
		}
	}
}
