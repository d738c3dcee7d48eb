package semantic

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/justapithecus/supervise/progress"
)

const maxSummaryRunes = 200

// Decode extracts a Reading from a parser response.
//
// The response may wrap the JSON object in markdown fences or prose; the
// outermost {...} span is used. Every field is optional and may be null.
// Anything that does not yield a percent or a summary decodes as no reading.
func Decode(raw string) (progress.Reading, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return progress.Reading{}, false
	}
	body := raw[start : end+1]
	if !gjson.Valid(body) {
		return progress.Reading{}, false
	}
	obj := gjson.Parse(body)
	if !obj.IsObject() {
		return progress.Reading{}, false
	}

	var r progress.Reading
	if pct, ok := number(obj.Get("percent")); ok && pct >= 0 && pct <= 100 {
		r.Percent = &pct
	}
	cur, okCur := number(obj.Get("current"))
	tot, okTot := number(obj.Get("total"))
	if okCur && okTot && tot > 0 && cur >= 0 {
		r.Current, r.Total = &cur, &tot
	}
	if s := obj.Get("summary"); s.Type == gjson.String {
		r.Summary = cleanSummary(s.String())
	}

	if r.Percent == nil && r.Summary == "" {
		return progress.Reading{}, false
	}
	return r, true
}

// number accepts JSON numbers and numeric strings such as "45" or "45%".
// Infinities and NaN are rejected.
func number(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v.Str), "%"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// cleanSummary flattens a summary to a single line without markup.
func cleanSummary(s string) string {
	s = strings.NewReplacer("`", "", "{", "", "}", "").Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > maxSummaryRunes {
		s = string(runes[:maxSummaryRunes-1]) + "…"
	}
	return s
}
