//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package rlimit

import (
	"fmt"
	"syscall"
)

// raiseOpenFilesLimit raises the soft RLIMIT_NOFILE to cover need
// descriptors, never past the hard limit and never below whatever the
// soft limit already was.
func raiseOpenFilesLimit(need int) (int, error) {
	var rl syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("rlimit: getrlimit: %w", err)
	}

	want := rl.Cur
	if n := uint64(need); n > want {
		want = n
	}
	if want > rl.Max {
		want = rl.Max
	}

	if want != rl.Cur {
		rl.Cur = want
		if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
			return 0, fmt.Errorf("rlimit: setrlimit: %w", err)
		}
		if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rl); err != nil {
			return 0, fmt.Errorf("rlimit: getrlimit: %w", err)
		}
	}
	return int(rl.Cur), nil
}
