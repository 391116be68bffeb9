package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPIDFileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "glowd.pid")

	if err := WritePIDFile(path); err != nil {
		t.Fatalf("WritePIDFile error: %v", err)
	}
	pid, err := ReadPIDFile(path)
	if err != nil {
		t.Fatalf("ReadPIDFile error: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("pid = %d, want %d", pid, os.Getpid())
	}

	RemovePIDFile(path)
	if _, err := ReadPIDFile(path); err == nil {
		t.Fatal("expected error after remove")
	}
}

func TestWritePIDFileCreatesDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "run", "glowd.pid")
	if err := WritePIDFile(path); err != nil {
		t.Fatalf("WritePIDFile error: %v", err)
	}
	if _, err := ReadPIDFile(path); err != nil {
		t.Fatalf("ReadPIDFile error: %v", err)
	}
}

func TestReadPIDFileRejectsMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		contents string
	}{
		{name: "garbage", contents: "not-a-pid\n"},
		{name: "zero", contents: "0"},
		{name: "negative", contents: "-4\n"},
		{name: "empty", contents: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "glowd.pid")
			if err := os.WriteFile(path, []byte(tt.contents), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := ReadPIDFile(path); err == nil {
				t.Fatalf("expected error for contents %q", tt.contents)
			}
		})
	}
}
