// Package command delivers reports through the openclaw messaging CLI.
//
// Each message becomes one invocation of
//
//	openclaw message send --channel C --target T --message M [--media PATH]
//
// The attachment is passed only when the file exists at send time. DryRun
// runs the same command with --dry-run to check that the CLI can route to
// the configured channel on this machine.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/justapithecus/supervise/notify"
)

// DefaultBinary is the messaging CLI looked up on PATH.
const DefaultBinary = "openclaw"

// DefaultDryRunTimeout bounds a DryRun call.
const DefaultDryRunTimeout = 10 * time.Second

// ErrUnknownChannel is returned by DryRun when the CLI has no configuration
// for the requested channel.
var ErrUnknownChannel = errors.New("channel not configured for the messaging CLI")

const dryRunMessage = "🔔 Progress reporting connected."

// Config configures the command transport.
type Config struct {
	// Binary is the messaging CLI (default "openclaw").
	Binary string
	// Channel is the messaging channel, e.g. "discord" (required).
	Channel string
	// Target is the recipient within the channel, e.g. "channel:123" (required).
	Target string
}

// Transport invokes the messaging CLI once per message.
type Transport struct {
	config Config
}

// New creates a command transport.
// Returns an error if channel or target is empty.
func New(cfg Config) (*Transport, error) {
	if cfg.Channel == "" || cfg.Target == "" {
		return nil, errors.New("command transport requires channel and target")
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	return &Transport{config: cfg}, nil
}

// Available reports whether binary can be found on PATH.
func Available(binary string) bool {
	if binary == "" {
		binary = DefaultBinary
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Args builds the CLI arguments for msg, excluding the binary itself.
func (t *Transport) Args(msg *notify.Message) []string {
	args := []string{
		"message", "send",
		"--channel", t.config.Channel,
		"--target", t.config.Target,
		"--message", msg.Text,
	}
	if msg.Attachment != "" {
		if info, err := os.Stat(msg.Attachment); err == nil && !info.IsDir() {
			args = append(args, "--media", msg.Attachment)
		}
	}
	return args
}

// Send runs the messaging CLI and waits for it to exit.
func (t *Transport) Send(ctx context.Context, msg *notify.Message) error {
	cmd := exec.CommandContext(ctx, t.config.Binary, t.Args(msg)...)
	cmd.WaitDelay = time.Second
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", t.config.Binary, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DryRun runs a dry-run send and reports whether the CLI accepted it.
func (t *Transport) DryRun(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultDryRunTimeout)
	defer cancel()

	args := append(t.Args(&notify.Message{Text: dryRunMessage}), "--dry-run")
	cmd := exec.CommandContext(ctx, t.config.Binary, args...)
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	detail := strings.TrimSpace(string(out))
	if strings.Contains(detail, "Unknown channel") {
		return fmt.Errorf("%s: %w: %s", t.config.Binary, ErrUnknownChannel, t.config.Channel)
	}
	if len(detail) > 200 {
		detail = detail[:200]
	}
	return fmt.Errorf("%s dry-run: %w: %s", t.config.Binary, err, detail)
}

// Close is a no-op; each send is an independent process.
func (t *Transport) Close() error { return nil }

// Verify Transport implements the notify.Transport interface.
var _ notify.Transport = (*Transport)(nil)
