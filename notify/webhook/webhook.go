// Package webhook delivers reports to the messaging gateway over HTTP.
//
// Each message is one POST of {channel, target, message, mediaPath} to
// {gateway}/api/v1/message/send with a bearer token. Sends are attempted
// once; a lost report is preferable to delaying the next one. The
// attachment is sent as an absolute path, and only when the file exists.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/justapithecus/supervise/iox"
	"github.com/justapithecus/supervise/notify"
)

// SendPath is the gateway endpoint appended to the base URL.
const SendPath = "/api/v1/message/send"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// Config configures the webhook transport.
type Config struct {
	// URL is the gateway base URL (required).
	URL string
	// Token is sent as a bearer token (required).
	Token string
	// Channel is the messaging channel (required).
	Channel string
	// Target is the recipient within the channel (required).
	Target string
	// Headers are custom HTTP headers added to each request.
	Headers map[string]string
	// Timeout is the per-request timeout (default 10s).
	Timeout time.Duration
}

// Payload is the JSON body posted to the gateway.
type Payload struct {
	Channel   string `json:"channel"`
	Target    string `json:"target"`
	Message   string `json:"message"`
	MediaPath string `json:"mediaPath,omitempty"`
}

// Transport posts reports to the gateway.
type Transport struct {
	config   Config
	endpoint string
	client   *http.Client
}

// New creates a webhook transport from the given config.
func New(cfg Config) (*Transport, error) {
	if cfg.URL == "" || cfg.Token == "" {
		return nil, errors.New("webhook transport requires a gateway URL and token")
	}
	if cfg.Channel == "" || cfg.Target == "" {
		return nil, errors.New("webhook transport requires channel and target")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Transport{
		config:   cfg,
		endpoint: strings.TrimRight(cfg.URL, "/") + SendPath,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Endpoint returns the full URL messages are posted to.
func (t *Transport) Endpoint() string { return t.endpoint }

// Send posts msg to the gateway. Non-2xx responses return a *StatusError.
func (t *Transport) Send(ctx context.Context, msg *notify.Message) error {
	body, err := json.Marshal(Payload{
		Channel:   t.config.Channel,
		Target:    t.config.Target,
		Message:   msg.Text,
		MediaPath: mediaPath(msg.Attachment),
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	if err := t.doRequest(ctx, body); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

// mediaPath returns the absolute path of attachment when it names an
// existing regular file, and "" otherwise.
func mediaPath(attachment string) string {
	if attachment == "" {
		return ""
	}
	info, err := os.Stat(attachment)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	abs, err := filepath.Abs(attachment)
	if err != nil {
		return ""
	}
	return abs
}

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

func (t *Transport) doRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.config.Token)
	for k, v := range t.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (t *Transport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// Verify Transport implements the notify.Transport interface.
var _ notify.Transport = (*Transport)(nil)
