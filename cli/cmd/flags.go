// Package cmd provides the supervise command-line surface.
package cmd

import "github.com/urfave/cli/v2"

// Shared output flags.
var (
	// SummaryFlag prints a run summary to stderr after the child exits.
	SummaryFlag = &cli.StringFlag{
		Name:  "summary",
		Usage: "Print a run summary to stderr: table, json, yaml",
	}

	// NoColorFlag disables colored summary output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored summary output",
	}
)

// SuperviseFlags returns every flag accepted by supervise.
// Flags with EnvVars take their default from the environment; values from
// the config file apply only when neither flag nor environment is set.
func SuperviseFlags() []cli.Flag {
	return []cli.Flag{
		// Run
		&cli.StringFlag{
			Name:  "label",
			Usage: "Run label used in reports (default: command basename)",
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to YAML config file",
			EnvVars: []string{"SUPERVISE_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Supervisor diagnostics level: debug, info, warn, error",
			EnvVars: []string{"SUPERVISE_LOG_LEVEL"},
		},
		&cli.DurationFlag{
			Name:  "grace",
			Usage: "How long to wait for in-flight notifications after exit",
		},
		// Progress
		// The interval env vars are read in resolveOptions so that a
		// malformed value falls back instead of failing the run.
		&cli.IntFlag{
			Name:  "parse-every",
			Usage: "Seconds between progress checks (env: " + envParseSec + ")",
		},
		&cli.IntFlag{
			Name:  "fallback",
			Usage: "Seconds without a report before a fallback status is sent (env: " + envFallbackSec + ")",
		},
		&cli.BoolFlag{
			Name:  "milestones",
			Usage: "Send a report when a percentage threshold is crossed (--milestones=false to disable)",
			Value: true,
		},
		&cli.StringFlag{
			Name:  "thresholds",
			Usage: "Comma-separated milestone percentages, e.g. 25,50,75,100",
		},
		&cli.StringFlag{
			Name:    "plot",
			Aliases: []string{"attach"},
			Usage:   "File attached to milestone, status and success reports",
		},
		&cli.BoolFlag{
			Name:  "no-llm",
			Usage: "Disable the external semantic progress parser",
		},
		// Routing
		&cli.StringFlag{
			Name:    "channel",
			Usage:   "Notification channel",
			EnvVars: []string{"OPENCLAW_PROGRESS_CHANNEL", "OPENCLAW_DEFAULT_DM_CHANNEL"},
		},
		&cli.StringFlag{
			Name:    "target",
			Usage:   "Notification target within the channel",
			EnvVars: []string{"OPENCLAW_PROGRESS_TARGET", "OPENCLAW_DEFAULT_DM_TARGET"},
		},
		// Transport
		&cli.StringFlag{
			Name:    "transport",
			Usage:   "Notification transport: auto, command, webhook, redis",
			EnvVars: []string{"SUPERVISE_TRANSPORT"},
		},
		&cli.StringFlag{
			Name:    "gateway-url",
			Usage:   "Gateway base URL for the webhook transport",
			EnvVars: []string{"OPENCLAW_GATEWAY_URL"},
		},
		&cli.StringFlag{
			Name:    "gateway-token",
			Usage:   "Bearer token for the webhook transport",
			EnvVars: []string{"OPENCLAW_GATEWAY_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL; reports are also published there",
			EnvVars: []string{"SUPERVISE_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:  "redis-channel",
			Usage: "Redis pub/sub channel (default: supervise:reports)",
		},
		&cli.StringFlag{
			Name:  "redis-encoding",
			Usage: "Redis payload encoding: json or msgpack",
		},
		// Output
		SummaryFlag,
		NoColorFlag,
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write a JSON run report to this path (- for stderr)",
		},
	}
}
