package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/metrics"
	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/progress"
	"github.com/justapithecus/supervise/types"
)

// Default monitor intervals.
const (
	DefaultParseInterval    = 10 * time.Second
	DefaultFallbackInterval = 300 * time.Second
)

// Parse sources recorded in metrics.
const (
	sourceSemantic = "semantic"
	sourceLocal    = "local"
	sourceNone     = "none"
)

// Reporter accepts formatted reports for asynchronous delivery.
// *notify.Dispatcher implements it.
type Reporter interface {
	Dispatch(msg *notify.Message)
	Wait(grace time.Duration) bool
}

// MonitorConfig configures a Monitor.
type MonitorConfig struct {
	// ParseInterval is the polling period (default 10s).
	ParseInterval time.Duration
	// FallbackInterval throttles status and fallback reports (default 300s).
	FallbackInterval time.Duration
	// Thresholds are ascending milestone percentages (default 10..100).
	Thresholds []float64
	// Milestones enables milestone reports.
	Milestones bool
	// Attachment is an optional file path attached to progress reports.
	Attachment string
	// Semantic is tried before the local extractor when non-nil.
	Semantic progress.Parser
	// Start is the run start used for elapsed time (default: now).
	Start time.Time
	// Now overrides the clock (for testing).
	Now func() time.Time
}

// Monitor polls the run state for new output, infers progress, and
// dispatches milestone, status, and fallback reports.
type Monitor struct {
	config    MonitorConfig
	meta      *types.RunMeta
	state     *RunState
	reporter  Reporter
	local     progress.Parser
	logger    *log.Logger
	collector *metrics.Collector

	// lastReport drives the status/fallback throttle. Only the monitor
	// goroutine touches it.
	lastReport time.Time
}

// NewMonitor creates a monitor. The fallback timer starts now.
func NewMonitor(cfg MonitorConfig, meta *types.RunMeta, state *RunState, reporter Reporter, logger *log.Logger, collector *metrics.Collector) *Monitor {
	if cfg.ParseInterval <= 0 {
		cfg.ParseInterval = DefaultParseInterval
	}
	if cfg.FallbackInterval <= 0 {
		cfg.FallbackInterval = DefaultFallbackInterval
	}
	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = progress.DefaultThresholds()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Start.IsZero() {
		cfg.Start = cfg.Now()
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Monitor{
		config:     cfg,
		meta:       meta,
		state:      state,
		reporter:   reporter,
		local:      progress.LocalParser{},
		logger:     logger,
		collector:  collector,
		lastReport: cfg.Now(),
	}
}

// Run polls every ParseInterval until ctx is cancelled or done is closed.
// done is checked once per tick, before polling.
func (m *Monitor) Run(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(m.config.ParseInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			select {
			case <-done:
				return
			default:
			}
			m.Tick(ctx)
		}
	}
}

// Tick performs one poll. It returns the kind of report dispatched, or ""
// when nothing was sent.
func (m *Monitor) Tick(ctx context.Context) notify.Kind {
	chunk := m.state.TakeUnparsed()
	if strings.TrimSpace(chunk) == "" {
		return ""
	}
	m.collector.IncMonitorTick()

	reading, source, ok := m.parse(ctx, chunk)
	m.collector.IncParsed(source)
	m.logger.Debug("monitor tick", map[string]any{
		"bytes":  len(chunk),
		"source": source,
	})

	now := m.config.Now()
	elapsed := now.Sub(m.config.Start)

	if ok {
		if _, fired := m.state.RecordReading(reading, m.config.Thresholds, m.config.Milestones); fired {
			m.collector.IncMilestoneFired()
			m.send(notify.KindMilestone, MilestoneText(m.meta.Label, reading, elapsed), m.config.Attachment)
			m.lastReport = now
			return notify.KindMilestone
		}
		if reading.HasPercent() && m.config.Milestones {
			// Between thresholds; the next milestone will report.
			return ""
		}
		if reading.Summary != "" {
			if !m.fallbackDue(now) {
				return ""
			}
			m.send(notify.KindStatus, StatusText(m.meta.Label, reading.Summary, elapsed), m.config.Attachment)
			m.lastReport = now
			return notify.KindStatus
		}
	}

	if !m.fallbackDue(now) {
		return ""
	}
	tail := progress.Tail(chunk, FallbackTailLines)
	m.send(notify.KindFallback, FallbackText(m.meta.Label, tail, elapsed), m.config.Attachment)
	m.lastReport = now
	return notify.KindFallback
}

// Flush parses output left unparsed when the child exited, using the local
// extractor only. The reading is recorded for the final report; no
// milestone fires and nothing is dispatched.
func (m *Monitor) Flush(ctx context.Context) {
	chunk := m.state.TakeUnparsed()
	if strings.TrimSpace(chunk) == "" {
		return
	}
	if r, ok := m.local.Parse(ctx, m.meta.Label, chunk); ok {
		m.state.RecordReading(r, nil, false)
	}
}

func (m *Monitor) parse(ctx context.Context, chunk string) (progress.Reading, string, bool) {
	if m.config.Semantic != nil {
		if r, ok := m.config.Semantic.Parse(ctx, m.meta.Label, chunk); ok {
			return r, sourceSemantic, true
		}
	}
	if r, ok := m.local.Parse(ctx, m.meta.Label, chunk); ok {
		return r, sourceLocal, true
	}
	return progress.Reading{}, sourceNone, false
}

func (m *Monitor) fallbackDue(now time.Time) bool {
	return now.Sub(m.lastReport) >= m.config.FallbackInterval
}

func (m *Monitor) send(kind notify.Kind, text, attachment string) {
	m.reporter.Dispatch(&notify.Message{
		Kind:       kind,
		RunID:      m.meta.RunID,
		Label:      m.meta.Label,
		Text:       text,
		Attachment: attachment,
	})
}
