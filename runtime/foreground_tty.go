//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package runtime

import (
	"os"

	"golang.org/x/sys/unix"
)

// foregroundGroup reports whether the supervisor's process group is the
// foreground group of its controlling terminal.
func foregroundGroup() bool {
	for _, f := range []*os.File{os.Stdin, os.Stderr} {
		pgrp, err := unix.IoctlGetInt(int(f.Fd()), unix.TIOCGPGRP)
		if err == nil {
			return pgrp == unix.Getpgrp()
		}
	}
	return false
}
