package runtime

import (
	"strings"
	"sync"
	"testing"

	"github.com/justapithecus/supervise/progress"
)

func pct(v float64) *float64 { return &v }

func TestRunState_TakeUnparsed(t *testing.T) {
	s := NewRunState()

	if got := s.TakeUnparsed(); got != "" {
		t.Errorf("empty state: got %q", got)
	}

	s.Append("one")
	s.Append("two")
	if got := s.TakeUnparsed(); got != "one\ntwo\n" {
		t.Errorf("first take = %q", got)
	}
	if got := s.TakeUnparsed(); got != "" {
		t.Errorf("second take without new output = %q, want empty", got)
	}

	s.Append("three")
	if got := s.TakeUnparsed(); got != "three\n" {
		t.Errorf("third take = %q", got)
	}

	snap := s.Snapshot()
	if snap.Offset != len(snap.Output) {
		t.Errorf("offset = %d, want %d", snap.Offset, len(snap.Output))
	}
}

func TestRunState_OffsetMonotonic(t *testing.T) {
	s := NewRunState()
	prev := 0
	for i := range 50 {
		if i%3 != 0 {
			s.Append(strings.Repeat("x", i))
		}
		s.TakeUnparsed()
		snap := s.Snapshot()
		if snap.Offset < prev {
			t.Fatalf("offset decreased: %d -> %d", prev, snap.Offset)
		}
		if snap.Offset != len(snap.Output) {
			t.Fatalf("offset %d != buffer length %d after take", snap.Offset, len(snap.Output))
		}
		prev = snap.Offset
	}
}

func TestRunState_RecordReading(t *testing.T) {
	s := NewRunState()
	th := progress.DefaultThresholds()

	if _, fired := s.RecordReading(progress.Reading{Summary: "warming up"}, th, true); fired {
		t.Error("reading without percent should not fire")
	}
	if got := s.Latest(); got == nil || got.Summary != "warming up" {
		t.Errorf("latest = %+v", got)
	}

	m, fired := s.RecordReading(progress.Reading{Percent: pct(35)}, th, true)
	if !fired || m != 30 {
		t.Errorf("35%% fired %v/%v, want 30/true", m, fired)
	}
	if _, fired := s.RecordReading(progress.Reading{Percent: pct(38)}, th, true); fired {
		t.Error("38% should not fire again")
	}
	if _, fired := s.RecordReading(progress.Reading{Percent: pct(12)}, th, true); fired {
		t.Error("regression should not fire")
	}
	if got := s.Snapshot().Milestone; got != 30 {
		t.Errorf("watermark = %v, want 30", got)
	}

	if _, fired := s.RecordReading(progress.Reading{Percent: pct(90)}, th, false); fired {
		t.Error("milestones disabled should not fire")
	}
	if got := s.Snapshot().Milestone; got != 30 {
		t.Errorf("watermark moved while disabled: %v", got)
	}
}

func TestRunState_LatestIsCopy(t *testing.T) {
	s := NewRunState()
	s.RecordReading(progress.Reading{Summary: "a"}, nil, false)

	got := s.Latest()
	got.Summary = "mutated"
	if s.Latest().Summary != "a" {
		t.Error("Latest returned shared reading")
	}
}

func TestRunState_ConcurrentAppend(t *testing.T) {
	s := NewRunState()
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 250 {
				s.Append(strings.Repeat(string(rune('a'+w)), 1+i%7))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 100 {
			s.TakeUnparsed()
		}
	}()
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(s.Snapshot().Output, "\n"), "\n")
	if len(lines) != 1000 {
		t.Fatalf("got %d lines, want 1000", len(lines))
	}
	for _, l := range lines {
		if strings.Trim(l, string(l[0])) != "" {
			t.Fatalf("interleaved line %q", l)
		}
	}
}

func TestRunState_Tail(t *testing.T) {
	s := NewRunState()
	for _, l := range []string{"a", "b", "c", "d"} {
		s.Append(l)
	}
	if got := s.Tail(2); got != "c\nd" {
		t.Errorf("Tail(2) = %q", got)
	}
}
