//go:build !unix

package runtime

import (
	"fmt"
	"os"
	"syscall"
)

var forwardedSignals = []os.Signal{os.Interrupt}

var terminateSignal = os.Kill

// deliveredToGroup reports whether sig reached the child without help.
// Console interrupts go to every process attached to the console.
func deliveredToGroup(sig os.Signal) bool {
	return sig == os.Interrupt
}

func signalName(sig int) string {
	switch syscall.Signal(sig) {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGKILL:
		return "SIGKILL"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return fmt.Sprintf("signal %d", sig)
	}
}
