package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/justapithecus/supervise/cli/render"
	"github.com/justapithecus/supervise/progress"
	"github.com/justapithecus/supervise/runtime"
)

// summaryView is the flattened table form of a RunReport.
// JSON and YAML summaries render the RunReport itself.
type summaryView struct {
	Label         string `json:"label"`
	RunID         string `json:"run_id"`
	Command       string `json:"command"`
	Outcome       string `json:"outcome"`
	ExitCode      int    `json:"exit_code"`
	Signal        string `json:"signal"`
	Duration      string `json:"duration"`
	Milestone     string `json:"milestone"`
	Progress      string `json:"progress"`
	Lines         string `json:"lines"`
	Reports       string `json:"reports"`
	Notifications string `json:"notifications"`
}

func newSummaryView(report *runtime.RunReport) summaryView {
	v := summaryView{
		Label:     report.Label,
		RunID:     report.RunID,
		Command:   strings.Join(report.Command, " "),
		Outcome:   outcomeWord(report),
		ExitCode:  report.ExitCode,
		Signal:    report.Signal,
		Duration:  runtime.FormatElapsed(time.Duration(report.DurationMs) * time.Millisecond),
		Milestone: "-",
		Progress:  "-",
	}
	if report.Milestone > 0 {
		v.Milestone = progress.FormatNumber(report.Milestone) + "%"
	}
	if p := report.Progress; p != nil {
		v.Progress = progressCell(p)
	}
	if m := report.Metrics; m != nil {
		v.Lines = fmt.Sprintf("%d stdout, %d stderr", m.StdoutLines, m.StderrLines)
		v.Reports = formatCounts(m.ReportsByKind)
		v.Notifications = fmt.Sprintf("%d sent, %d failed (%s)", m.NotificationsSent, m.NotificationsFailed, m.Transport)
	}
	return v
}

// outcomeWord condenses the outcome kind and exit code into one word.
func outcomeWord(report *runtime.RunReport) string {
	switch runtime.OutcomeKind(report.Outcome) {
	case runtime.OutcomeExited:
		if report.ExitCode == 0 {
			return "succeeded"
		}
		return "failed"
	case runtime.OutcomeSignaled:
		return "killed"
	default:
		return report.Outcome
	}
}

func progressCell(r *progress.Reading) string {
	var parts []string
	if r.HasPercent() {
		parts = append(parts, progress.FormatNumber(*r.Percent)+"%")
	}
	if r.HasSteps() {
		parts = append(parts, r.Steps())
	}
	if r.Summary != "" {
		parts = append(parts, r.Summary)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// formatCounts renders a kind->count map as "a=1 b=2" in key order.
func formatCounts(m map[string]int64) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

// printSummary renders the run summary to w when --summary is set.
func printSummary(w io.Writer, opts *options, report *runtime.RunReport) error {
	if opts.summary == "" {
		return nil
	}
	r := render.NewRenderer(opts.summary, opts.noColor, w)
	if opts.summary == render.FormatTable {
		return r.Render(newSummaryView(report))
	}
	return r.Render(report)
}
