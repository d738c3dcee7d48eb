package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/metrics"
)

// DefaultSendTimeout bounds a single transport send.
const DefaultSendTimeout = 30 * time.Second

// Dispatcher sends messages asynchronously.
//
// Each Dispatch runs on its own goroutine; results are counted and logged
// but never returned. Wait bounds how long shutdown waits for in-flight
// sends.
type Dispatcher struct {
	transport   Transport
	sendTimeout time.Duration
	logger      *log.Logger
	collector   *metrics.Collector

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewDispatcher creates a dispatcher over transport.
// A nil transport drops every message; a nil logger discards diagnostics;
// a nil collector records nothing.
func NewDispatcher(transport Transport, sendTimeout time.Duration, logger *log.Logger, collector *metrics.Collector) *Dispatcher {
	if transport == nil {
		transport = Nop{}
	}
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Dispatcher{
		transport:   transport,
		sendTimeout: sendTimeout,
		logger:      logger,
		collector:   collector,
	}
}

// Dispatch hands msg to the transport without blocking the caller.
func (d *Dispatcher) Dispatch(msg *Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	d.collector.IncReport(string(msg.Kind))

	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)

		// Detached from the run's context so terminal reports still go out
		// while the supervisor is shutting down.
		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		defer cancel()

		if err := d.transport.Send(ctx, msg); err != nil {
			d.collector.IncNotificationFailed()
			d.logger.Debug("notification dropped", map[string]any{
				"kind":  msg.Kind,
				"error": err.Error(),
			})
			return
		}
		d.collector.IncNotificationSent()
	}()
}

// InFlight returns the number of sends that have not finished.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Wait blocks until all in-flight sends finish or grace elapses.
// Returns true if every send finished.
func (d *Dispatcher) Wait(grace time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		d.logger.Debug("grace period elapsed with sends in flight", map[string]any{
			"in_flight": d.InFlight(),
		})
		return false
	}
}

// Close releases the transport. Call after Wait.
func (d *Dispatcher) Close() error {
	return d.transport.Close()
}
