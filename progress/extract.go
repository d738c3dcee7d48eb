package progress

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultWindowLines is the number of trailing lines Extract examines.
const DefaultWindowLines = 50

// maxSummaryRunes caps the summary copied from an output line.
const maxSummaryRunes = 200

var (
	// stepPattern matches "Epoch 3/10", "step: 40 / 200", "12/50".
	stepPattern = regexp.MustCompile(
		`(?i)(?:\b(?:epoch|step|batch|iter|iteration|sample|chunk|file|item)s?\b\s*[:#]?\s*)?(\d+)\s*/\s*(\d+)`)

	// percentPattern matches "47%", "[ 12.5 %]".
	percentPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

	// fractionPattern matches "progress: 0.42", "progress=1.0".
	fractionPattern = regexp.MustCompile(`(?i)\bprogress\s*[:=]\s*(\d+(?:\.\d+)?|\.\d+)`)

	// ansiPattern matches CSI escape sequences (colors, cursor movement).
	ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
)

// Extract infers a Reading from the most recent lines of text.
//
// Lines are examined newest first; the first line that yields a reading
// wins. Within a line, a current/total pair beats a percentage, which beats
// a fractional "progress:" marker. Returns false when nothing is detectable.
func Extract(text string) (Reading, bool) {
	lines := Window(text, DefaultWindowLines)
	for i := len(lines) - 1; i >= 0; i-- {
		if r, ok := ExtractLine(lines[i]); ok {
			return r, true
		}
	}
	return Reading{}, false
}

// ExtractLine applies the detection patterns to a single line.
func ExtractLine(line string) (Reading, bool) {
	line = NormalizeLine(line)
	if line == "" {
		return Reading{}, false
	}
	summary := truncateRunes(line, maxSummaryRunes)

	for _, m := range stepPattern.FindAllStringSubmatch(line, -1) {
		current, err1 := strconv.ParseFloat(m[1], 64)
		total, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || total <= 0 || current > total {
			continue
		}
		return Reading{
			Percent: ptr(100 * current / total),
			Current: ptr(current),
			Total:   ptr(total),
			Summary: summary,
		}, true
	}

	for _, m := range percentPattern.FindAllStringSubmatch(line, -1) {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil || pct < 0 || pct > 100 {
			continue
		}
		return Reading{Percent: ptr(pct), Summary: summary}, true
	}

	for _, m := range fractionPattern.FindAllStringSubmatch(line, -1) {
		frac, err := strconv.ParseFloat(m[1], 64)
		if err != nil || frac < 0 || frac > 1 {
			continue
		}
		return Reading{Percent: ptr(frac * 100), Summary: summary}, true
	}

	return Reading{}, false
}

// NormalizeLine strips ANSI escapes and keeps only the last redraw of a
// carriage-return progress bar.
func NormalizeLine(line string) string {
	line = ansiPattern.ReplaceAllString(line, "")
	if strings.Contains(line, "\r") {
		segments := strings.Split(line, "\r")
		line = ""
		for i := len(segments) - 1; i >= 0; i-- {
			if strings.TrimSpace(segments[i]) != "" {
				line = segments[i]
				break
			}
		}
	}
	return strings.TrimSpace(line)
}

// Window returns the last n non-blank lines of text, oldest first.
func Window(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	all := strings.Split(text, "\n")
	out := make([]string, 0, min(n, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		if strings.TrimSpace(all[i]) == "" {
			continue
		}
		out = append(out, all[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Tail returns the last n lines of text joined with newlines.
// Unlike Window it keeps blank lines, preserving the output's shape.
func Tail(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
