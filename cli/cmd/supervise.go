package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/supervise/cli/config"
	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/metrics"
	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/runtime"
	"github.com/justapithecus/supervise/types"
)

// exitUsage is returned for invalid invocations and configuration errors.
// Launch failures map to the same code through Outcome.ExitStatus.
const exitUsage = 1

// UsageText is the synopsis shown in help output.
const UsageText = "supervise [OPTIONS] -- <command> [args...]"

// SuperviseAction runs the command given after the flags, reports its
// progress, and exits with the child's status.
//
// Exit codes:
//   - the child's own code when it exits
//   - 128+N when it is killed by signal N
//   - 1 for usage errors and launch failures
func SuperviseAction(c *cli.Context) error {
	argv := c.Args().Slice()
	if len(argv) == 0 {
		return cli.Exit("usage: "+UsageText, exitUsage)
	}

	var fileCfg *config.Config
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("supervise: %v", err), exitUsage)
		}
		fileCfg = cfg
	}

	opts, err := resolveOptions(c, fileCfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("supervise: %v", err), exitUsage)
	}

	runMeta := types.NewRunMeta(opts.label, argv)
	logger := log.NewLoggerWithWriter(runMeta, c.App.ErrWriter, opts.logLevel)
	defer logger.Sync()
	sugar := logger.Sugar()

	transport, transportName, err := buildTransport(c.Context, opts.transport, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("supervise: %v", err), exitUsage)
	}

	collector := metrics.NewCollector(runMeta.RunID, runMeta.Label, transportName)
	dispatcher := notify.NewDispatcher(transport, opts.dispatcherTimeout(), logger, collector)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			sugar.Debugf("transport close failed: %v", err)
		}
	}()

	sup, err := runtime.NewSupervisor(&runtime.SupervisorConfig{
		RunMeta:        runMeta,
		Monitor:        opts.monitorConfig(logger),
		Reporter:       dispatcher,
		GracePeriod:    opts.gracePeriod,
		ForwardSignals: true,
		Stdin:          os.Stdin,
		Stdout:         c.App.Writer,
		Stderr:         c.App.ErrWriter,
		Logger:         logger,
		Collector:      collector,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("supervise: %v", err), exitUsage)
	}

	logger.Info("supervising", map[string]any{
		"command":   argv,
		"transport": transportName,
		"parse_sec": opts.parseInterval.Seconds(),
	})

	result := sup.Run(c.Context)
	report := runtime.BuildRunReport(result, collector.Snapshot())

	logger.Debug("run finished", map[string]any{
		"outcome":   report.Outcome,
		"exit_code": report.ExitCode,
		"delivered": result.Delivered,
		"metrics":   report.Metrics,
	})

	if err := printSummary(c.App.ErrWriter, opts, report); err != nil {
		sugar.Warnf("failed to print summary: %v", err)
	}
	if opts.report != "" {
		if err := runtime.WriteRunReport(report, opts.report); err != nil {
			sugar.Warnf("failed to write run report %s: %v", opts.report, err)
		}
	}

	if code := result.Outcome.ExitStatus(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}
