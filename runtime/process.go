package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/justapithecus/supervise/iox"
)

// ErrNoCommand is returned when the child argv is empty.
var ErrNoCommand = errors.New("no command to supervise")

// DefaultKillDelay is how long a cancelled child has to exit after
// terminateSignal before it is killed.
const DefaultKillDelay = 10 * time.Second

// processConfig configures a child launch.
type processConfig struct {
	argv  []string
	stdin io.Reader
	env   []string
	dir   string
}

// process is a started child with its output pipes.
//
// stdout and stderr are the read ends of os.Pipe pairs. The write ends are
// handed to the child directly, so exec.Cmd does not own the read ends and
// Wait never closes them under the capture goroutines.
type process struct {
	cmd    *exec.Cmd
	stdout *os.File
	stderr *os.File
}

// startProcess launches the child. On error nothing is left running and no
// descriptors are leaked.
func startProcess(ctx context.Context, cfg processConfig) (*process, error) {
	if len(cfg.argv) == 0 || cfg.argv[0] == "" {
		return nil, ErrNoCommand
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		iox.CloseAll(outR, outW)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, cfg.argv[0], cfg.argv[1:]...)
	cmd.Stdin = cfg.stdin
	cmd.Stdout = outW
	cmd.Stderr = errW
	cmd.Env = cfg.env
	cmd.Dir = cfg.dir
	cmd.Cancel = func() error { return cmd.Process.Signal(terminateSignal) }
	cmd.WaitDelay = DefaultKillDelay

	if err := cmd.Start(); err != nil {
		iox.CloseAll(outR, outW, errR, errW)
		return nil, err
	}

	// The child holds its own copies of the write ends; EOF on the read
	// ends now means the child (and any descendants) closed them.
	iox.CloseAll(outW, errW)

	return &process{cmd: cmd, stdout: outR, stderr: errR}, nil
}

// pid returns the child's process ID.
func (p *process) pid() int {
	return p.cmd.Process.Pid
}

// wait blocks until the child exits and classifies the result.
func (p *process) wait() Outcome {
	err := p.cmd.Wait()
	return DetermineOutcome(p.cmd.ProcessState, err)
}

// signal relays sig to the child.
func (p *process) signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

// closePipes closes the read ends, unblocking any capture still reading.
func (p *process) closePipes() {
	iox.CloseAll(p.stdout, p.stderr)
}
