package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/justapithecus/supervise/metrics"
	"github.com/justapithecus/supervise/progress"
)

// Tail sizes for report bodies.
const (
	FallbackTailLines = 5
	FailureTailLines  = 10
)

// FormatElapsed renders d as "42s", "3.5min", or "1.2h".
func FormatElapsed(d time.Duration) string {
	secs := d.Seconds()
	switch {
	case secs >= 3600:
		return fmt.Sprintf("%.1fh", secs/3600)
	case secs >= 60:
		return fmt.Sprintf("%.1fmin", secs/60)
	default:
		return fmt.Sprintf("%.0fs", secs)
	}
}

// withSummary appends summary on its own line when non-empty.
func withSummary(head, summary string) string {
	if summary == "" {
		return head
	}
	return head + "\n" + summary
}

func fenced(tail string) string {
	return "```\n" + tail + "\n```"
}

// MilestoneText formats a milestone report for reading r.
func MilestoneText(label string, r progress.Reading, elapsed time.Duration) string {
	head := fmt.Sprintf("📊 **%s** — %.0f%%", label, *r.Percent)
	if steps := r.Steps(); steps != "" {
		head += " " + steps
	}
	head += " · " + FormatElapsed(elapsed)
	return withSummary(head, r.Summary)
}

// StatusText formats a throttled status report carrying a summary.
func StatusText(label, summary string, elapsed time.Duration) string {
	return withSummary(fmt.Sprintf("📊 **%s** · %s", label, FormatElapsed(elapsed)), summary)
}

// FallbackText formats a throttled report carrying raw output.
func FallbackText(label, tail string, elapsed time.Duration) string {
	return fmt.Sprintf("📊 **%s** · %s\n%s", label, FormatElapsed(elapsed), fenced(tail))
}

// SuccessText formats the final report for a clean exit. latest may be nil.
func SuccessText(label string, latest *progress.Reading, elapsed time.Duration) string {
	head := "✅ **" + label + "** finished"
	summary := ""
	if latest != nil {
		if steps := latest.Steps(); steps != "" {
			head += " " + steps
		}
		summary = latest.Summary
	}
	head += " in " + FormatElapsed(elapsed)
	return withSummary(head, summary)
}

// FailureText formats the final report for a non-zero exit or signal death.
func FailureText(label string, o Outcome, tail string, elapsed time.Duration) string {
	var head string
	switch o.Kind {
	case OutcomeSignaled:
		hint := ""
		if o.LikelyOOM() {
			hint = " (likely OOM)"
		}
		head = fmt.Sprintf("❌ **%s** killed by %s (%d)%s after %s",
			label, o.SignalName(), o.Signal, hint, FormatElapsed(elapsed))
	default:
		head = fmt.Sprintf("❌ **%s** exited with code %d after %s", label, o.Code, FormatElapsed(elapsed))
	}
	return head + "\n" + fenced(tail)
}

// LaunchFailureText formats the report sent when the child cannot start.
func LaunchFailureText(label, program string, err error) string {
	return fmt.Sprintf("❌ **%s** — failed to launch `%s`: %v", label, program, err)
}

// RunReport is the structured summary of a finished run, written by
// --report and rendered by --summary.
type RunReport struct {
	RunID      string   `json:"run_id" yaml:"run_id"`
	Label      string   `json:"label" yaml:"label"`
	Command    []string `json:"command" yaml:"command"`
	Outcome    string   `json:"outcome" yaml:"outcome"`
	ExitCode   int      `json:"exit_code" yaml:"exit_code"`
	Signal     string   `json:"signal,omitempty" yaml:"signal,omitempty"`
	Error      string   `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64    `json:"duration_ms" yaml:"duration_ms"`
	Milestone  float64  `json:"milestone" yaml:"milestone"`

	Progress *progress.Reading `json:"progress,omitempty" yaml:"progress,omitempty"`
	Metrics  *metrics.Snapshot `json:"metrics" yaml:"metrics"`
}

// BuildRunReport composes a RunReport from a Result and metrics snapshot.
func BuildRunReport(result *Result, snap metrics.Snapshot) *RunReport {
	report := &RunReport{
		RunID:      result.RunMeta.RunID,
		Label:      result.RunMeta.Label,
		Command:    result.RunMeta.Command,
		Outcome:    string(result.Outcome.Kind),
		ExitCode:   result.Outcome.ExitStatus(),
		DurationMs: result.Duration.Milliseconds(),
		Milestone:  result.Milestone,
		Progress:   result.Latest,
		Metrics:    &snap,
	}
	if result.Outcome.Kind == OutcomeSignaled {
		report.Signal = result.Outcome.SignalName()
	}
	if result.Outcome.Err != nil {
		report.Error = result.Outcome.Err.Error()
	}
	return report
}

// WriteRunReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteRunReport(report *RunReport, path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("report path must not be empty")
	}

	if path == "-" {
		if err := writeRunReportTo(report, os.Stderr); err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	data, err := marshalRunReport(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

func marshalRunReport(report *RunReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// writeRunReportTo writes report JSON to any writer (for testing).
func writeRunReportTo(report *RunReport, w io.Writer) error {
	data, err := marshalRunReport(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
