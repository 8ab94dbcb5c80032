package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
)

// setRuntimeDir points the XDG runtime directory at path for the test.
// xdg caches the environment at init, so it is reloaded on both sides.
func setRuntimeDir(t *testing.T, path string) {
	t.Helper()
	t.Cleanup(func() { xdg.Reload() })
	t.Setenv("XDG_RUNTIME_DIR", path)
	xdg.Reload()
}

func TestDir_UsesXDGRuntimeDirWhenPresent(t *testing.T) {
	td := t.TempDir()
	setRuntimeDir(t, td)

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if got != td {
		t.Fatalf("Dir() = %q, want %q", got, td)
	}
}

func TestDir_FallsBackWhenRuntimeDirMissing(t *testing.T) {
	setRuntimeDir(t, filepath.Join(t.TempDir(), "missing"))

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}

	want := fmt.Sprintf("/tmp/pywo-%d", os.Getuid())
	if got != want {
		t.Fatalf("Dir() = %q, want %q", got, want)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Fatalf("Dir() did not create %q", got)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	setRuntimeDir(t, td)

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if !strings.HasSuffix(socket, "/pywo.sock") {
		t.Fatalf("SocketPath() = %q, missing suffix", socket)
	}
}
