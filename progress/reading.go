// Package progress infers completion progress from unstructured process output.
//
// Extract and NextMilestone perform no I/O and hold no state. External
// parsers (see progress/semantic) plug in through the Parser interface and
// are tried ahead of the local extractor by the run monitor.
package progress

import (
	"context"
	"strconv"
)

// Reading is a single progress observation.
//
// Percent, when set, lies in [0,100]. Current and Total are either both set
// (with Total > 0) or both nil. Summary is a single human-readable line.
type Reading struct {
	Percent *float64 `json:"percent,omitempty"`
	Current *float64 `json:"current,omitempty"`
	Total   *float64 `json:"total,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// HasPercent reports whether the reading carries a percentage.
func (r Reading) HasPercent() bool { return r.Percent != nil }

// HasSteps reports whether the reading carries a current/total pair.
func (r Reading) HasSteps() bool { return r.Current != nil && r.Total != nil }

// Steps formats the step counters as "(c/t)", or "" when absent.
func (r Reading) Steps() string {
	if !r.HasSteps() {
		return ""
	}
	return "(" + FormatNumber(*r.Current) + "/" + FormatNumber(*r.Total) + ")"
}

// FormatNumber renders whole numbers without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Parser derives a Reading from a window of output text.
// Implementations must treat every failure as "no reading".
type Parser interface {
	Parse(ctx context.Context, label, text string) (Reading, bool)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(ctx context.Context, label, text string) (Reading, bool)

// Parse calls f.
func (f ParserFunc) Parse(ctx context.Context, label, text string) (Reading, bool) {
	return f(ctx, label, text)
}

// LocalParser is the regex-based extractor exposed as a Parser.
type LocalParser struct{}

// Parse runs Extract on text. The label is unused.
func (LocalParser) Parse(_ context.Context, _ string, text string) (Reading, bool) {
	return Extract(text)
}

func ptr(v float64) *float64 { return &v }
