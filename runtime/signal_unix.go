//go:build unix

package runtime

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// forwardedSignals are relayed from the supervisor to the child.
var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// terminalSignals are sent by the terminal to the whole foreground process
// group.
var terminalSignals = map[os.Signal]bool{syscall.SIGINT: true, syscall.SIGHUP: true}

// deliveredToGroup reports whether sig reached the child without help. The
// child inherits the supervisor's process group, so a terminal signal
// arriving while that group holds the terminal went to both.
func deliveredToGroup(sig os.Signal) bool {
	return terminalSignals[sig] && foregroundGroup()
}

// terminateSignal asks the child to stop when the run context is cancelled.
var terminateSignal os.Signal = syscall.SIGTERM

func signalName(sig int) string {
	if name := unix.SignalName(syscall.Signal(sig)); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", sig)
}
