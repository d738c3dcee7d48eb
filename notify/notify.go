// Package notify delivers run reports to external notification sinks.
//
// Reports are fire-and-forget: the Dispatcher hands each Message to a
// Transport on its own goroutine and never surfaces transport errors to the
// supervisor. Transports make a single attempt per message.
package notify

import (
	"context"
	"time"
)

// Kind classifies a report.
type Kind string

const (
	// KindMilestone is sent when a progress threshold is crossed.
	KindMilestone Kind = "milestone"
	// KindStatus carries a parser summary when no percentage is known.
	KindStatus Kind = "status"
	// KindFallback carries the raw output tail when nothing was parsed.
	KindFallback Kind = "fallback"
	// KindSuccess is the terminal report for exit code 0.
	KindSuccess Kind = "success"
	// KindFailure is the terminal report for a non-zero exit or signal death.
	KindFailure Kind = "failure"
	// KindLaunchFailure is sent when the child could not be started.
	KindLaunchFailure Kind = "launch_failure"
)

// Message is a single formatted report.
type Message struct {
	Kind       Kind      `json:"kind" msgpack:"kind"`
	RunID      string    `json:"run_id" msgpack:"run_id"`
	Label      string    `json:"label" msgpack:"label"`
	Text       string    `json:"text" msgpack:"text"`
	Attachment string    `json:"attachment,omitempty" msgpack:"attachment,omitempty"`
	Timestamp  time.Time `json:"timestamp" msgpack:"timestamp"`
}

// Transport delivers a message to a downstream system.
type Transport interface {
	// Send delivers msg once. Must respect context cancellation and deadlines.
	Send(ctx context.Context, msg *Message) error

	// Close releases transport resources.
	Close() error
}

// Nop is a Transport that drops every message.
type Nop struct{}

// Send discards msg.
func (Nop) Send(context.Context, *Message) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }

// Verify Nop implements the transport interface.
var _ Transport = Nop{}
