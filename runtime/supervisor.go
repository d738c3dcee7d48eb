package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/justapithecus/supervise/log"
	"github.com/justapithecus/supervise/metrics"
	"github.com/justapithecus/supervise/notify"
	"github.com/justapithecus/supervise/progress"
	"github.com/justapithecus/supervise/types"
)

// Default shutdown bounds.
const (
	// DefaultGracePeriod bounds waiting for in-flight notifications.
	DefaultGracePeriod = 2 * time.Second
	// DefaultDrainTimeout bounds draining output after the child exits.
	// Descendants that inherited the pipes can keep them open indefinitely.
	DefaultDrainTimeout = 5 * time.Second
)

// SupervisorConfig configures a single supervised run.
type SupervisorConfig struct {
	// RunMeta is the run identity; RunMeta.Command is the child argv.
	RunMeta *types.RunMeta
	// Monitor configures progress polling and reporting.
	Monitor MonitorConfig
	// Reporter receives every report. Required.
	Reporter Reporter
	// GracePeriod bounds waiting for in-flight reports (default 2s).
	GracePeriod time.Duration
	// DrainTimeout bounds output draining after exit (default 5s).
	DrainTimeout time.Duration
	// ForwardSignals relays SIGINT, SIGTERM and SIGHUP to the child.
	// SIGINT and SIGHUP are not relayed when the terminal already delivered
	// them to the child's foreground process group.
	ForwardSignals bool

	// Stdin is passed to the child (default os.Stdin).
	Stdin io.Reader
	// Stdout and Stderr receive the echoed child output
	// (default os.Stdout and os.Stderr).
	Stdout io.Writer
	Stderr io.Writer
	// Env and Dir are passed to exec.Cmd unchanged.
	Env []string
	Dir string

	// Logger receives supervisor diagnostics. If nil, a logger is created
	// from RunMeta at the default level.
	Logger *log.Logger
	// Collector records run metrics. If nil, no metrics are recorded.
	Collector *metrics.Collector
}

// Result is the outcome of a supervised run.
type Result struct {
	// RunMeta is the run identity, with PID set once the child started.
	RunMeta *types.RunMeta
	// Outcome classifies how the child ended.
	Outcome Outcome
	// Duration is the wall time from launch to classification.
	Duration time.Duration
	// Milestone is the highest threshold reported.
	Milestone float64
	// Latest is the last progress reading, if any.
	Latest *progress.Reading
	// Delivered is false when reports were still in flight after the grace
	// period.
	Delivered bool
}

// Supervisor runs a child process and reports on its progress.
type Supervisor struct {
	config *SupervisorConfig
	logger *log.Logger
	state  *RunState

	// groupSignaled reports whether a received signal already reached the
	// child through its process group.
	groupSignaled func(os.Signal) bool
}

// NewSupervisor creates a supervisor.
// Returns error if the run metadata or reporter is missing or invalid.
func NewSupervisor(config *SupervisorConfig) (*Supervisor, error) {
	if config.RunMeta == nil {
		return nil, errors.New("run metadata is required")
	}
	if len(config.RunMeta.Command) == 0 {
		return nil, ErrNoCommand
	}
	if err := config.RunMeta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run metadata: %w", err)
	}
	if config.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if config.GracePeriod <= 0 {
		config.GracePeriod = DefaultGracePeriod
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.Stdin == nil {
		config.Stdin = os.Stdin
	}
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}
	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewLogger(config.RunMeta, log.DefaultLevel)
	}

	return &Supervisor{
		config:        config,
		logger:        logger,
		state:         NewRunState(),
		groupSignaled: deliveredToGroup,
	}, nil
}

// State exposes the run state (for testing and summaries).
func (s *Supervisor) State() *RunState {
	return s.state
}

// Run executes the child end-to-end and always returns a Result.
//
// Execution flow:
//  1. Start the child with stdout/stderr on pipes
//  2. Start both capture goroutines and the monitor
//  3. Wait for the child to exit
//  4. Stop the monitor, drain the captures, and parse the remainder
//  5. Classify the exit and dispatch the final report
//  6. Wait up to GracePeriod for in-flight reports
func (s *Supervisor) Run(ctx context.Context) *Result {
	cfg := s.config
	meta := cfg.RunMeta
	start := time.Now()

	s.logger.Info("starting child", map[string]any{
		"command": meta.Command,
	})

	proc, err := startProcess(ctx, processConfig{
		argv:  meta.Command,
		stdin: cfg.Stdin,
		env:   cfg.Env,
		dir:   cfg.Dir,
	})
	if err != nil {
		cfg.Collector.IncLaunchFailure()
		s.logger.Error("failed to launch child", map[string]any{
			"error": err.Error(),
		})
		outcome := Outcome{Kind: OutcomeLaunchFailed, Code: -1, Err: err}
		s.dispatch(notify.KindLaunchFailure, LaunchFailureText(meta.Label, meta.Command[0], err), "")
		return s.finish(outcome, start)
	}

	cfg.Collector.IncLaunchSuccess()
	meta.PID = proc.pid()
	s.logger = s.logger.With("pid", meta.PID)

	stopForwarding := s.forwardSignals(proc)
	defer stopForwarding()

	// Captures run until EOF on their pipe, independent of ctx.
	var captures errgroup.Group
	captures.Go(func() error {
		return Capture(proc.stdout, cfg.Stdout, s.state, StreamStdout, cfg.Collector)
	})
	captures.Go(func() error {
		return Capture(proc.stderr, cfg.Stderr, s.state, StreamStderr, cfg.Collector)
	})

	monitorCfg := cfg.Monitor
	if monitorCfg.Start.IsZero() {
		monitorCfg.Start = start
	}
	monitor := NewMonitor(monitorCfg, meta, s.state, cfg.Reporter, s.logger, cfg.Collector)
	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	done := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitor.Run(monitorCtx, done)
	}()

	outcome := proc.wait()
	close(done)
	cancelMonitor()
	<-monitorDone

	s.drain(proc, &captures)
	monitor.Flush(ctx)

	s.logger.Info("child exited", map[string]any{
		"outcome":   outcome.Kind,
		"exit_code": outcome.Code,
		"signal":    outcome.Signal,
	})

	elapsed := time.Since(start)
	if outcome.Success() {
		s.dispatch(notify.KindSuccess, SuccessText(meta.Label, s.state.Latest(), elapsed), cfg.Monitor.Attachment)
	} else {
		s.dispatch(notify.KindFailure, FailureText(meta.Label, outcome, s.state.Tail(FailureTailLines), elapsed), "")
	}

	return s.finish(outcome, start)
}

// drain joins the capture goroutines. If descendants keep the pipes open
// past DrainTimeout, the read ends are closed to release the captures.
func (s *Supervisor) drain(proc *process, captures *errgroup.Group) {
	joined := make(chan error, 1)
	go func() { joined <- captures.Wait() }()

	timer := time.NewTimer(s.config.DrainTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-joined:
	case <-timer.C:
		s.logger.Warn("output still open after child exit, closing pipes", map[string]any{
			"drain_timeout": s.config.DrainTimeout.String(),
		})
		proc.closePipes()
		err = <-joined
	}
	if err != nil {
		s.logger.Warn("capture failed", map[string]any{
			"error": err.Error(),
		})
	}
	proc.closePipes()
}

func (s *Supervisor) forwardSignals(proc *process) func() {
	if !s.config.ForwardSignals {
		return func() {}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, forwardedSignals...)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				if s.groupSignaled(sig) {
					s.logger.Info("child received signal from the terminal, not forwarding", map[string]any{
						"signal": sig.String(),
					})
					continue
				}
				s.logger.Info("forwarding signal", map[string]any{
					"signal": sig.String(),
				})
				if err := proc.signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
					s.logger.Warn("failed to forward signal", map[string]any{
						"signal": sig.String(),
						"error":  err.Error(),
					})
				}
			case <-stop:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(stop)
	}
}

func (s *Supervisor) dispatch(kind notify.Kind, text, attachment string) {
	s.config.Reporter.Dispatch(&notify.Message{
		Kind:       kind,
		RunID:      s.config.RunMeta.RunID,
		Label:      s.config.RunMeta.Label,
		Text:       text,
		Attachment: attachment,
	})
}

func (s *Supervisor) finish(outcome Outcome, start time.Time) *Result {
	duration := time.Since(start)
	delivered := s.config.Reporter.Wait(s.config.GracePeriod)
	snap := s.state.Snapshot()
	return &Result{
		RunMeta:   s.config.RunMeta,
		Outcome:   outcome,
		Duration:  duration,
		Milestone: snap.Milestone,
		Latest:    snap.Latest,
		Delivered: delivered,
	}
}
