package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSortsFileInPlace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.bin")
	require.NoError(t, os.WriteFile(path, []byte{9, 0, 0, 0, 1, 0, 0, 0, 5, 0, 0, 0}, 0600))

	code := run([]string{"-record-size", "4", path})
	require.Equal(t, 0, code)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 0, 0, 0, 5, 0, 0, 0, 9, 0, 0, 0}, out)
}

func TestRunRequiresExactlyOnePositionalArg(t *testing.T) {
	require.Equal(t, 2, run(nil))
	require.Equal(t, 2, run([]string{"a", "b"}))
}

func TestRunReportsFailureOnMissingFile(t *testing.T) {
	code := run([]string{filepath.Join(t.TempDir(), "does-not-exist.bin")})
	require.Equal(t, 1, code)
}
