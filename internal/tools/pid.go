package tools

import (
	"os"
	"strconv"
)

// WritePidFile writes the current process id to pidFile. An empty path
// is a no-op.
func WritePidFile(pidFile string) error {
	if pidFile == "" {
		return nil
	}
	pid := []byte(strconv.Itoa(os.Getpid()) + "\n")
	return os.WriteFile(pidFile, pid, 0644)
}
