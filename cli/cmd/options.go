package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/supervise/cli/config"
	"github.com/justapithecus/supervise/cli/render"
	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/progress"
	"github.com/justapithecus/supervise/progress/semantic"
	"github.com/justapithecus/supervise/runtime"
)

// Interval environment variables. Unparsable or non-positive values are
// ignored.
const (
	envParseSec    = "OPENCLAW_PROGRESS_PARSE_SEC"
	envFallbackSec = "OPENCLAW_PROGRESS_FALLBACK_SEC"
)

// options is the fully resolved configuration for one run.
// Precedence: flag > environment > config file > built-in default.
type options struct {
	label            string
	logLevel         zapcore.Level
	parseInterval    time.Duration
	fallbackInterval time.Duration
	gracePeriod      time.Duration
	milestones       bool
	thresholds       []float64
	attachment       string

	semantic        bool
	semanticCommand []string
	semanticTimeout time.Duration

	transport   transportChoice
	sendTimeout time.Duration

	summary render.Format
	noColor bool
	report  string
}

// resolveOptions merges flags and the optional config file.
// fileCfg may be nil.
func resolveOptions(c *cli.Context, fileCfg *config.Config) (*options, error) {
	if fileCfg == nil {
		fileCfg = &config.Config{}
	}

	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}

	opts := &options{
		label:            resolveString(c, "label", fileCfg.Label, ""),
		logLevel:         level,
		parseInterval:    resolveSeconds(c, "parse-every", envParseSec, fileCfg.ParseInterval, runtime.DefaultParseInterval),
		fallbackInterval: resolveSeconds(c, "fallback", envFallbackSec, fileCfg.FallbackInterval, runtime.DefaultFallbackInterval),
		gracePeriod:      resolveDuration(c, "grace", fileCfg.GracePeriod, runtime.DefaultGracePeriod),
		milestones:       resolveBool(c, "milestones", fileCfg.Milestones, true),
		attachment:       resolveString(c, "plot", fileCfg.Attachment, ""),

		semantic:        !c.Bool("no-llm") && fileCfg.SemanticEnabled(true),
		semanticCommand: fileCfg.Semantic.Command,
		semanticTimeout: fileCfg.Semantic.Timeout.Duration,

		transport: transportChoice{
			kind:           resolveString(c, "transport", fileCfg.Transport.Type, transportAuto),
			channel:        resolveString(c, "channel", fileCfg.Channel, ""),
			target:         resolveString(c, "target", fileCfg.Target, ""),
			gatewayURL:     resolveString(c, "gateway-url", fileCfg.Transport.Gateway.URL, ""),
			gatewayToken:   resolveString(c, "gateway-token", fileCfg.Transport.Gateway.Token, ""),
			gatewayHeaders: fileCfg.Transport.Gateway.Headers,
			gatewayTimeout: fileCfg.Transport.Gateway.Timeout.Duration,
			redisURL:       resolveString(c, "redis-url", fileCfg.Transport.Redis.URL, ""),
			redisChannel:   resolveString(c, "redis-channel", fileCfg.Transport.Redis.Channel, ""),
			redisEncoding:  resolveString(c, "redis-encoding", fileCfg.Transport.Redis.Encoding, ""),
		},
		sendTimeout: fileCfg.Transport.SendTimeout.Duration,

		noColor: c.Bool("no-color"),
		report:  c.String("report"),
	}

	if c.IsSet("parse-every") && c.Int("parse-every") <= 0 {
		return nil, fmt.Errorf("--parse-every must be positive, got %d", c.Int("parse-every"))
	}
	if c.IsSet("fallback") && c.Int("fallback") <= 0 {
		return nil, fmt.Errorf("--fallback must be positive, got %d", c.Int("fallback"))
	}

	opts.thresholds, err = resolveThresholds(c, fileCfg.Thresholds)
	if err != nil {
		return nil, err
	}

	opts.summary, err = render.ParseFormat(c.String("summary"))
	if err != nil {
		return nil, err
	}

	return opts, nil
}

// resolveString returns the flag value (from the command line or its
// environment variables) when set and non-empty, then fileVal, then def.
func resolveString(c *cli.Context, name, fileVal, def string) string {
	if c.IsSet(name) {
		if v := c.String(name); v != "" {
			return v
		}
	}
	if fileVal != "" {
		return fileVal
	}
	return def
}

// resolveSeconds resolves an integer-seconds flag, then its env var, then
// a config duration.
func resolveSeconds(c *cli.Context, name, env string, fileVal config.Duration, def time.Duration) time.Duration {
	if c.IsSet(name) {
		return time.Duration(c.Int(name)) * time.Second
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(env))); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if fileVal.Duration > 0 {
		return fileVal.Duration
	}
	return def
}

// resolveDuration resolves a duration flag against a config duration.
func resolveDuration(c *cli.Context, name string, fileVal config.Duration, def time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if fileVal.Duration > 0 {
		return fileVal.Duration
	}
	return def
}

// resolveBool resolves a boolean flag against an optional config value.
func resolveBool(c *cli.Context, name string, fileVal *bool, def bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	if fileVal != nil {
		return *fileVal
	}
	return def
}

func resolveThresholds(c *cli.Context, fileVal []float64) ([]float64, error) {
	if c.IsSet("thresholds") {
		return progress.ParseThresholds(c.String("thresholds"))
	}
	if len(fileVal) == 0 {
		return progress.DefaultThresholds(), nil
	}
	parts := make([]string, len(fileVal))
	for i, v := range fileVal {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	t, err := progress.ParseThresholds(strings.Join(parts, ","))
	if err != nil {
		return nil, fmt.Errorf("config thresholds: %w", err)
	}
	return t, nil
}

// semanticParser builds the external parser, or returns nil when it is
// disabled or its command cannot be found.
func (o *options) semanticParser(logger *log.Logger) progress.Parser {
	if !o.semantic {
		return nil
	}
	argv := o.semanticCommand
	if len(argv) == 0 {
		argv = semantic.DefaultCommand()
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		logger.Info("semantic parser unavailable, using local extractor", map[string]any{
			"command": argv[0],
		})
		return nil
	}
	return semantic.New(semantic.Config{
		Command: argv,
		Timeout: o.semanticTimeout,
	}, logger)
}

// monitorConfig maps the resolved options onto the monitor.
func (o *options) monitorConfig(logger *log.Logger) runtime.MonitorConfig {
	return runtime.MonitorConfig{
		ParseInterval:    o.parseInterval,
		FallbackInterval: o.fallbackInterval,
		Thresholds:       o.thresholds,
		Milestones:       o.milestones,
		Attachment:       o.attachment,
		Semantic:         o.semanticParser(logger),
	}
}

// dispatcherTimeout returns the per-send timeout, or the dispatcher default.
func (o *options) dispatcherTimeout() time.Duration {
	if o.sendTimeout > 0 {
		return o.sendTimeout
	}
	return notify.DefaultSendTimeout
}
