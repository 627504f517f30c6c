package platform

import (
	"os"
	"runtime"
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// PermMatches reports whether the file at path has exactly the expected
// permission bits. It always reports true on Windows.
func PermMatches(info os.FileInfo, expected os.FileMode) bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm() == expected
}
