//go:build !linux

package directio

import (
	"errors"
	"os"
)

func openDirect(path string) (*os.File, error) {
	return nil, errors.New("directio: O_DIRECT not supported on this platform")
}
