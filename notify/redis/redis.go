// Package redis publishes reports to a Redis pub/sub channel.
//
// Messages are encoded as JSON or MessagePack and published once to the
// configured channel. Consumers subscribe to fan reports out further.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/supervise/notify"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "supervise:reports"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// Encoding selects the wire format of published messages.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
)

// ParseEncoding validates an encoding name. Empty means JSON.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", EncodingJSON:
		return EncodingJSON, nil
	case EncodingMsgpack:
		return EncodingMsgpack, nil
	default:
		return "", fmt.Errorf("unknown redis encoding %q (want json or msgpack)", s)
	}
}

// Config configures the Redis transport.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: supervise:reports).
	Channel string
	// Encoding is the wire format (default: json).
	Encoding Encoding
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
}

// Transport publishes reports via Redis PUBLISH.
type Transport struct {
	config Config
	client *goredis.Client
}

// New creates a Redis transport from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Transport, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis transport requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis transport: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	enc, err := ParseEncoding(string(cfg.Encoding))
	if err != nil {
		return nil, err
	}
	cfg.Encoding = enc
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transport{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Encode serializes msg in the configured encoding.
func (t *Transport) Encode(msg *notify.Message) ([]byte, error) {
	if t.config.Encoding == EncodingMsgpack {
		return msgpack.Marshal(msg)
	}
	return json.Marshal(msg)
}

// Send publishes msg to the configured channel.
func (t *Transport) Send(ctx context.Context, msg *notify.Message) error {
	body, err := t.Encode(msg)
	if err != nil {
		return fmt.Errorf("redis: encode message: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	if err := t.client.Publish(publishCtx, t.config.Channel, body).Err(); err != nil {
		return fmt.Errorf("redis: publish: %w", err)
	}
	return nil
}

// Close releases the client connection pool.
func (t *Transport) Close() error {
	return t.client.Close()
}

// Verify Transport implements the notify.Transport interface.
var _ notify.Transport = (*Transport)(nil)
