// Package metrics provides per-run counters for a supervised process.
//
// The Collector accumulates counters during a single run. It is a leaf
// package with no internal dependencies; report kinds and stream names are
// passed as plain strings.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Child process
	LaunchSuccess int64 `json:"launch_success" yaml:"launch_success"`
	LaunchFailure int64 `json:"launch_failure" yaml:"launch_failure"`

	// Capture
	StdoutLines   int64 `json:"stdout_lines" yaml:"stdout_lines"`
	StderrLines   int64 `json:"stderr_lines" yaml:"stderr_lines"`
	CapturedBytes int64 `json:"captured_bytes" yaml:"captured_bytes"`

	// Monitor
	MonitorTicks    int64 `json:"monitor_ticks" yaml:"monitor_ticks"`
	ParsedSemantic  int64 `json:"parsed_semantic" yaml:"parsed_semantic"`
	ParsedLocal     int64 `json:"parsed_local" yaml:"parsed_local"`
	ParsedNone      int64 `json:"parsed_none" yaml:"parsed_none"`
	MilestonesFired int64 `json:"milestones_fired" yaml:"milestones_fired"`

	// Notifications
	NotificationsSent   int64            `json:"notifications_sent" yaml:"notifications_sent"`
	NotificationsFailed int64            `json:"notifications_failed" yaml:"notifications_failed"`
	ReportsByKind       map[string]int64 `json:"reports_by_kind" yaml:"reports_by_kind"`

	// Dimensions (informational, set at construction)
	RunID     string `json:"run_id" yaml:"run_id"`
	Label     string `json:"label" yaml:"label"`
	Transport string `json:"transport" yaml:"transport"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	launchSuccess int64
	launchFailure int64

	stdoutLines   int64
	stderrLines   int64
	capturedBytes int64

	monitorTicks    int64
	parsedSemantic  int64
	parsedLocal     int64
	parsedNone      int64
	milestonesFired int64

	notificationsSent   int64
	notificationsFailed int64
	reportsByKind       map[string]int64

	runID     string
	label     string
	transport string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(runID, label, transport string) *Collector {
	return &Collector{
		reportsByKind: make(map[string]int64),
		runID:         runID,
		label:         label,
		transport:     transport,
	}
}

// --- Child process ---

// IncLaunchSuccess records a successful child launch.
func (c *Collector) IncLaunchSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchSuccess++
	c.mu.Unlock()
}

// IncLaunchFailure records a failed child launch.
func (c *Collector) IncLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.launchFailure++
	c.mu.Unlock()
}

// --- Capture ---

// AddLine records one captured line of n bytes from the named stream
// ("stdout" or "stderr").
func (c *Collector) AddLine(stream string, n int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	switch stream {
	case "stderr":
		c.stderrLines++
	default:
		c.stdoutLines++
	}
	c.capturedBytes += int64(n)
	c.mu.Unlock()
}

// --- Monitor ---

// IncMonitorTick records a monitor tick that found new output.
func (c *Collector) IncMonitorTick() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.monitorTicks++
	c.mu.Unlock()
}

// IncParsed records which parser produced the tick's reading:
// "semantic", "local", or anything else for no reading.
func (c *Collector) IncParsed(source string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	switch source {
	case "semantic":
		c.parsedSemantic++
	case "local":
		c.parsedLocal++
	default:
		c.parsedNone++
	}
	c.mu.Unlock()
}

// IncMilestoneFired records a milestone firing.
func (c *Collector) IncMilestoneFired() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.milestonesFired++
	c.mu.Unlock()
}

// --- Notifications ---

// IncReport records a dispatched report of the given kind.
func (c *Collector) IncReport(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.reportsByKind[kind]++
	c.mu.Unlock()
}

// IncNotificationSent records a transport send that succeeded.
func (c *Collector) IncNotificationSent() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notificationsSent++
	c.mu.Unlock()
}

// IncNotificationFailed records a transport send that failed.
func (c *Collector) IncNotificationFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.notificationsFailed++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.reportsByKind))
	for k, v := range c.reportsByKind {
		byKind[k] = v
	}

	return Snapshot{
		LaunchSuccess: c.launchSuccess,
		LaunchFailure: c.launchFailure,

		StdoutLines:   c.stdoutLines,
		StderrLines:   c.stderrLines,
		CapturedBytes: c.capturedBytes,

		MonitorTicks:    c.monitorTicks,
		ParsedSemantic:  c.parsedSemantic,
		ParsedLocal:     c.parsedLocal,
		ParsedNone:      c.parsedNone,
		MilestonesFired: c.milestonesFired,

		NotificationsSent:   c.notificationsSent,
		NotificationsFailed: c.notificationsFailed,
		ReportsByKind:       byKind,

		RunID:     c.runID,
		Label:     c.label,
		Transport: c.transport,
	}
}
