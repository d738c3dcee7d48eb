//go:build unix && !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package runtime

func foregroundGroup() bool { return false }
