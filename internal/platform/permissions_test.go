package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChmod(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "test.txt")
	if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	root := openRoot(t, tmp)

	if err := Chmod(root, "test.txt", 0600); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want %o", perm, 0600)
		}
	}
}

func TestModeOf(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}

	tmp := t.TempDir()
	script := filepath.Join(tmp, "setup")
	if err := os.WriteFile(script, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := Chmod(openRoot(t, tmp), "setup", 0755); err != nil {
		t.Fatal(err)
	}

	if got := ModeOf(script, DefaultFileMode); got != 0755 {
		t.Errorf("ModeOf(script) = %o, want %o", got, 0755)
	}
	if !IsExecutable(ModeOf(script, DefaultFileMode)) {
		t.Error("script should be executable")
	}
}

func TestModeOfMissingFile(t *testing.T) {
	got := ModeOf(filepath.Join(t.TempDir(), "missing"), DefaultFileMode)
	if got != DefaultFileMode {
		t.Errorf("ModeOf(missing) = %o, want fallback %o", got, DefaultFileMode)
	}
	if IsExecutable(got) {
		t.Error("default mode should not be executable")
	}
}

func TestChmodOutsideRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on Windows")
	}
	tmp := t.TempDir()
	if err := Chmod(openRoot(t, tmp), "../escape.txt", 0600); err == nil {
		t.Error("expected error for a path outside the root")
	}
}

func openRoot(t *testing.T, dir string) *os.Root {
	t.Helper()
	root, err := os.OpenRoot(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { root.Close() })
	return root
}
