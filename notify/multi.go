package notify

import (
	"context"
	"errors"
)

// Multi fans a message out to several transports.
// Every transport is attempted; their errors are joined.
type Multi []Transport

// Send delivers msg to each transport in order.
func (m Multi) Send(ctx context.Context, msg *Message) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify Multi implements the transport interface.
var _ Transport = Multi(nil)
