package runtime

import (
	"strings"
	"sync"

	"github.com/justapithecus/supervise/progress"
)

// RunState is the output buffer and progress watermark shared by the capture
// goroutines, the monitor, and the supervisor.
//
// The buffer only grows. The unparsed offset and the milestone watermark
// never decrease. The lock is held only for short bookkeeping; parsing and
// notification happen outside it.
type RunState struct {
	mu        sync.Mutex
	buf       strings.Builder
	offset    int
	milestone float64
	latest    *progress.Reading
}

// StateSnapshot is a point-in-time copy of a RunState.
type StateSnapshot struct {
	Output    string
	Offset    int
	Milestone float64
	Latest    *progress.Reading
}

// NewRunState creates an empty run state.
func NewRunState() *RunState {
	return &RunState{}
}

// Append adds line plus a newline terminator to the buffer.
func (s *RunState) Append(line string) {
	s.mu.Lock()
	s.buf.WriteString(line)
	s.buf.WriteByte('\n')
	s.mu.Unlock()
}

// TakeUnparsed returns the output appended since the previous call and
// advances the offset to the end of the buffer.
func (s *RunState) TakeUnparsed() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.buf.String()
	chunk := out[s.offset:]
	s.offset = len(out)
	return chunk
}

// RecordReading stores r as the latest reading. When milestones is true and
// r carries a percent, the watermark is advanced to the highest threshold
// crossed. Returns the threshold that fired, if any.
func (s *RunState) RecordReading(r progress.Reading, thresholds []float64, milestones bool) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latest := r
	s.latest = &latest

	if !milestones || !r.HasPercent() {
		return 0, false
	}
	t, ok := progress.NextMilestone(thresholds, s.milestone, *r.Percent)
	if !ok {
		return 0, false
	}
	s.milestone = t
	return t, true
}

// Latest returns a copy of the most recent reading, or nil.
func (s *RunState) Latest() *progress.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return nil
	}
	r := *s.latest
	return &r
}

// Tail returns the last n lines of the whole buffer.
func (s *RunState) Tail(n int) string {
	s.mu.Lock()
	out := s.buf.String()
	s.mu.Unlock()
	return progress.Tail(out, n)
}

// Snapshot returns a copy of the state.
func (s *RunState) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		Output:    s.buf.String(),
		Offset:    s.offset,
		Milestone: s.milestone,
	}
	if s.latest != nil {
		r := *s.latest
		snap.Latest = &r
	}
	return snap
}
