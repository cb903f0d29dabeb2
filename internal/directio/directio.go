// Package directio opens the input file bypassing the page cache where
// the platform supports it, falling back to a buffered open anywhere it
// doesn't (tmpfs, most non-Linux kernels, or a filesystem that simply
// rejects the flag). Direct I/O only pays off when every read and write
// against the descriptor is offset- and length-aligned to the
// filesystem's DMA alignment; Open reports whether it actually got
// O_DIRECT so the caller can decide, against its own record width and
// align.ProbeAlignment's result, whether that's safe to rely on.
package directio

import "os"

// Open opens path for read/write, attempting O_DIRECT first. It reports
// direct=true only if the direct-I/O open actually succeeded; it does
// not know the caller's I/O granularity, so a true result only means
// the kernel accepted the flag, not that every subsequent read or write
// the caller issues will be aligned.
func Open(path string) (f *os.File, direct bool, err error) {
	if f, err := openDirect(path); err == nil {
		return f, true, nil
	}
	f, err = os.OpenFile(path, os.O_RDWR, 0600)
	return f, false, err
}
