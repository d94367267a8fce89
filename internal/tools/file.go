package tools

import (
	"os"
)

// FileExists reports whether filename exists on disk.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}
