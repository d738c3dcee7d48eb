package runtime

import (
	"bytes"
	"os/exec"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/types"
)

// recordingReporter captures dispatched messages synchronously.
type recordingReporter struct {
	mu   sync.Mutex
	msgs []*notify.Message
}

func (r *recordingReporter) Dispatch(msg *notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingReporter) Wait(time.Duration) bool { return true }

func (r *recordingReporter) messages() []*notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*notify.Message(nil), r.msgs...)
}

func (r *recordingReporter) ofKind(kind notify.Kind) []*notify.Message {
	var out []*notify.Message
	for _, m := range r.messages() {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 7, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// syncBuffer is a goroutine-safe bytes.Buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testMeta(command ...string) *types.RunMeta {
	meta := types.NewRunMeta("job", command)
	meta.RunID = "run-001"
	return meta
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}
