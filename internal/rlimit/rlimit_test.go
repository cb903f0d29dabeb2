package rlimit

import "testing"

func TestRaiseOpenFilesDoesNotError(t *testing.T) {
	if _, err := RaiseOpenFiles(5); err != nil {
		t.Fatalf("RaiseOpenFiles: %v", err)
	}
}

func TestRaiseOpenFilesNeverLowersTheLimit(t *testing.T) {
	before, err := RaiseOpenFiles(0)
	if err != nil {
		t.Fatalf("RaiseOpenFiles: %v", err)
	}
	after, err := RaiseOpenFiles(1)
	if err != nil {
		t.Fatalf("RaiseOpenFiles: %v", err)
	}
	if after < before {
		t.Fatalf("soft limit dropped from %d to %d", before, after)
	}
}
