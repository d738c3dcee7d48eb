package runtime

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// Exit statuses returned by the supervisor itself.
const (
	ExitCodeSuccess      = 0
	ExitCodeLaunchFailed = 1
	// ExitCodeSignalBase is added to the signal number when the child is
	// killed by a signal.
	ExitCodeSignalBase = 128
)

// OutcomeKind classifies how a supervised child ended.
type OutcomeKind string

const (
	// OutcomeExited means the child exited on its own with Code.
	OutcomeExited OutcomeKind = "exited"
	// OutcomeSignaled means the child was killed by Signal.
	OutcomeSignaled OutcomeKind = "signaled"
	// OutcomeLaunchFailed means the child never started; Err says why.
	OutcomeLaunchFailed OutcomeKind = "launch_failed"
)

// Outcome is the classified end of a supervised run.
type Outcome struct {
	Kind   OutcomeKind
	Code   int
	Signal int
	Err    error
}

// Success reports whether the child exited with code 0.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeExited && o.Code == 0
}

// ExitStatus is the status the supervisor itself should exit with:
// the child's code, 128+signal, or 1 for a launch failure.
func (o Outcome) ExitStatus() int {
	switch o.Kind {
	case OutcomeExited:
		return o.Code
	case OutcomeSignaled:
		return ExitCodeSignalBase + o.Signal
	default:
		return ExitCodeLaunchFailed
	}
}

// SignalName returns the conventional name of the signal, e.g. "SIGKILL".
func (o Outcome) SignalName() string {
	return signalName(o.Signal)
}

// LikelyOOM reports whether the death signal is the one the kernel OOM
// killer sends.
func (o Outcome) LikelyOOM() bool {
	return o.Kind == OutcomeSignaled && o.Signal == int(syscall.SIGKILL)
}

// DetermineOutcome classifies the result of cmd.Wait.
func DetermineOutcome(state *os.ProcessState, waitErr error) Outcome {
	if state == nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			state = exitErr.ProcessState
		}
	}
	if state == nil {
		return Outcome{Kind: OutcomeLaunchFailed, Code: -1, Err: waitErr}
	}

	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return Outcome{Kind: OutcomeSignaled, Signal: int(status.Signal())}
	}
	return Outcome{Kind: OutcomeExited, Code: state.ExitCode()}
}
