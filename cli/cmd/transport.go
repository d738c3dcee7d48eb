package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/notify/command"
	"github.com/justapithecus/supervise/notify/redis"
	"github.com/justapithecus/supervise/notify/webhook"
)

// Transport selection values for --transport.
const (
	transportAuto    = "auto"
	transportCommand = "command"
	transportWebhook = "webhook"
	transportRedis   = "redis"
	transportNone    = "none"
)

// errMissingRoute is returned when a routed transport has no channel or target.
var errMissingRoute = errors.New("channel and target required (use --channel/--target or OPENCLAW_PROGRESS_CHANNEL/OPENCLAW_PROGRESS_TARGET)")

// transportChoice holds parsed transport configuration.
type transportChoice struct {
	kind           string
	channel        string
	target         string
	binary         string // messaging CLI; empty means command.DefaultBinary
	gatewayURL     string
	gatewayToken   string
	gatewayHeaders map[string]string
	gatewayTimeout time.Duration
	redisURL       string
	redisChannel   string
	redisEncoding  string
}

// buildTransport constructs the notification transport and returns it with
// the name recorded in metrics. A configured Redis URL adds a Redis sink
// next to the primary transport.
func buildTransport(ctx context.Context, choice transportChoice, logger *log.Logger) (notify.Transport, string, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	var (
		primary notify.Transport
		name    string
		err     error
	)
	switch choice.kind {
	case "", transportAuto:
		primary, name, err = autoTransport(ctx, choice, logger)
	case transportCommand:
		primary, err = newCommandTransport(choice)
		name = transportCommand
	case transportWebhook:
		primary, err = newWebhookTransport(choice)
		name = transportWebhook
	case transportRedis:
		t, err := newRedisTransport(choice)
		if err != nil {
			return nil, "", err
		}
		return t, transportRedis, nil
	default:
		return nil, "", fmt.Errorf("unknown transport %q (must be auto, command, webhook, or redis)", choice.kind)
	}
	if err != nil {
		return nil, "", err
	}

	if choice.redisURL == "" {
		return primary, name, nil
	}
	sink, err := newRedisTransport(choice)
	if err != nil {
		_ = primary.Close()
		return nil, "", err
	}
	if _, ok := primary.(notify.Nop); ok {
		return sink, transportRedis, nil
	}
	return notify.Multi{primary, sink}, name + "+" + transportRedis, nil
}

// autoTransport prefers the messaging CLI, then the HTTP gateway.
// The CLI is kept only if a dry-run send succeeds or no gateway is
// configured. With neither available, reports are dropped and a warning
// is logged.
func autoTransport(ctx context.Context, choice transportChoice, logger *log.Logger) (notify.Transport, string, error) {
	gateway := choice.gatewayURL != "" && choice.gatewayToken != ""
	if command.Available(choice.binary) {
		t, err := newCommandTransport(choice)
		if err != nil {
			return nil, "", err
		}
		dryRunErr := t.DryRun(ctx)
		if dryRunErr == nil {
			return t, transportCommand, nil
		}
		fields := map[string]any{
			"binary":  commandBinary(choice),
			"channel": choice.channel,
			"error":   dryRunErr.Error(),
		}
		if errors.Is(dryRunErr, command.ErrUnknownChannel) {
			fields["hint"] = "run 'openclaw doctor --fix' or set OPENCLAW_GATEWAY_URL/OPENCLAW_GATEWAY_TOKEN"
		}
		if !gateway {
			logger.Warn("messaging CLI dry-run failed, keeping it without a gateway fallback", fields)
			return t, transportCommand, nil
		}
		logger.Warn("messaging CLI dry-run failed, using the HTTP gateway", fields)
	}
	if gateway {
		t, err := newWebhookTransport(choice)
		return t, transportWebhook, err
	}
	if choice.redisURL == "" {
		logger.Warn("no notification transport available, reports will not be delivered", map[string]any{
			"binary": commandBinary(choice),
		})
	}
	return notify.Nop{}, transportNone, nil
}

func newCommandTransport(choice transportChoice) (*command.Transport, error) {
	if choice.channel == "" || choice.target == "" {
		return nil, errMissingRoute
	}
	return command.New(command.Config{
		Binary:  choice.binary,
		Channel: choice.channel,
		Target:  choice.target,
	})
}

func newWebhookTransport(choice transportChoice) (*webhook.Transport, error) {
	if choice.channel == "" || choice.target == "" {
		return nil, errMissingRoute
	}
	return webhook.New(webhook.Config{
		URL:     choice.gatewayURL,
		Token:   choice.gatewayToken,
		Channel: choice.channel,
		Target:  choice.target,
		Headers: choice.gatewayHeaders,
		Timeout: choice.gatewayTimeout,
	})
}

func newRedisTransport(choice transportChoice) (*redis.Transport, error) {
	enc, err := redis.ParseEncoding(choice.redisEncoding)
	if err != nil {
		return nil, err
	}
	return redis.New(redis.Config{
		URL:      choice.redisURL,
		Channel:  choice.redisChannel,
		Encoding: enc,
	})
}

func commandBinary(choice transportChoice) string {
	if choice.binary != "" {
		return choice.binary
	}
	return command.DefaultBinary
}
