package platform

import (
	"os"
	"runtime"
)

// DefaultFileMode is used for files the engine creates without a source file
// to copy permissions from.
const DefaultFileMode os.FileMode = 0644

// Chmod sets the permissions of name inside root. On Windows this is a
// no-op because Windows does not support Unix-style permission bits.
func Chmod(root *os.Root, name string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return root.Chmod(name, mode)
}

// ModeOf returns the permission bits of path, or fallback if it cannot be
// stat'ed.
func ModeOf(path string, fallback os.FileMode) os.FileMode {
	info, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return info.Mode().Perm()
}

// IsExecutable reports whether any execute bit is set in mode.
func IsExecutable(mode os.FileMode) bool {
	return mode&0111 != 0
}
