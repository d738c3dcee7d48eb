package progress

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultThresholds returns the milestone thresholds 10, 20, ..., 100.
func DefaultThresholds() []float64 {
	out := make([]float64, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, float64(i*10))
	}
	return out
}

// NextMilestone decides whether a new milestone fires for percent.
//
// thresholds must be ascending. It returns the highest threshold t with
// last < t <= percent, so a jump across several thresholds fires once and
// the watermark moves past all of them. Returns false when none qualifies.
func NextMilestone(thresholds []float64, last, percent float64) (float64, bool) {
	fired, ok := 0.0, false
	for _, t := range thresholds {
		if t > percent {
			break
		}
		if t > last {
			fired, ok = t, true
		}
	}
	return fired, ok
}

// ParseThresholds parses a comma-separated list such as "25,50,75,100".
// Values must lie in (0,100]; the result is sorted and deduplicated.
func ParseThresholds(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), "%"))
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", part, err)
		}
		if v <= 0 || v > 100 {
			return nil, fmt.Errorf("threshold %s out of range (0,100]", part)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds in %q", s)
	}
	sort.Float64s(out)

	dedup := out[:1]
	for _, v := range out[1:] {
		if v != dedup[len(dedup)-1] {
			dedup = append(dedup, v)
		}
	}
	return dedup, nil
}
