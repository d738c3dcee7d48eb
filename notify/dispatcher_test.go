package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justapithecus/supervise/metrics"
)

// recordingTransport captures sent messages.
type recordingTransport struct {
	mu    sync.Mutex
	msgs  []*Message
	err   error
	delay time.Duration
}

func (r *recordingTransport) Send(ctx context.Context, msg *Message) error {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func TestDispatcher_DeliversAsync(t *testing.T) {
	rt := &recordingTransport{}
	c := metrics.NewCollector("run-001", "job", "test")
	d := NewDispatcher(rt, time.Second, nil, c)

	d.Dispatch(&Message{Kind: KindMilestone, Text: "30%"})
	d.Dispatch(&Message{Kind: KindSuccess, Text: "done"})

	require.True(t, d.Wait(2*time.Second))
	assert.Equal(t, 2, rt.count())
	assert.Equal(t, int64(0), d.InFlight())

	s := c.Snapshot()
	assert.Equal(t, int64(2), s.NotificationsSent)
	assert.Equal(t, int64(1), s.ReportsByKind["milestone"])
	assert.Equal(t, int64(1), s.ReportsByKind["success"])
}

func TestDispatcher_SetsTimestamp(t *testing.T) {
	rt := &recordingTransport{}
	d := NewDispatcher(rt, time.Second, nil, nil)

	d.Dispatch(&Message{Kind: KindStatus})
	require.True(t, d.Wait(time.Second))

	rt.mu.Lock()
	defer rt.mu.Unlock()
	assert.False(t, rt.msgs[0].Timestamp.IsZero())
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	rt := &recordingTransport{err: errors.New("transport down")}
	c := metrics.NewCollector("run-001", "job", "test")
	d := NewDispatcher(rt, time.Second, nil, c)

	d.Dispatch(&Message{Kind: KindFallback})
	require.True(t, d.Wait(time.Second))

	s := c.Snapshot()
	assert.Equal(t, int64(0), s.NotificationsSent)
	assert.Equal(t, int64(1), s.NotificationsFailed)
}

func TestDispatcher_DispatchDoesNotBlock(t *testing.T) {
	rt := &recordingTransport{delay: 500 * time.Millisecond}
	d := NewDispatcher(rt, 5*time.Second, nil, nil)

	start := time.Now()
	for range 10 {
		d.Dispatch(&Message{Kind: KindStatus})
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, int64(10), d.InFlight())

	require.True(t, d.Wait(3*time.Second))
}

func TestDispatcher_WaitIsBounded(t *testing.T) {
	rt := &recordingTransport{delay: 5 * time.Second}
	d := NewDispatcher(rt, 10*time.Second, nil, nil)

	d.Dispatch(&Message{Kind: KindSuccess})

	start := time.Now()
	assert.False(t, d.Wait(100*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatcher_SendTimeout(t *testing.T) {
	rt := &recordingTransport{delay: 5 * time.Second}
	c := metrics.NewCollector("run-001", "job", "test")
	d := NewDispatcher(rt, 50*time.Millisecond, nil, c)

	d.Dispatch(&Message{Kind: KindSuccess})
	require.True(t, d.Wait(2*time.Second))
	assert.Equal(t, int64(1), c.Snapshot().NotificationsFailed)
}

func TestDispatcher_NilTransport(t *testing.T) {
	d := NewDispatcher(nil, 0, nil, nil)
	d.Dispatch(&Message{Kind: KindSuccess})
	assert.True(t, d.Wait(time.Second))
	assert.NoError(t, d.Close())
}

func TestMulti(t *testing.T) {
	a := &recordingTransport{}
	b := &recordingTransport{err: errors.New("b failed")}
	c := &recordingTransport{}
	m := Multi{a, b, c}

	err := m.Send(context.Background(), &Message{Kind: KindStatus})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b failed")
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
	assert.Equal(t, 1, c.count(), "later transports still attempted")
	assert.NoError(t, m.Close())
}
