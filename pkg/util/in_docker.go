package util

import (
	"os"
	"strings"
)

// Overridable in tests
var (
	dockerEnvFile = "/.dockerenv"
	cgroupFile    = "/proc/1/cgroup"
)

// IsRunningInDocker reports whether the process runs inside a container.
// CONTAINER=1 forces it on for runtimes that leave no marker file.
func IsRunningInDocker() bool {
	if os.Getenv("CONTAINER") == "1" {
		return true
	}

	if _, err := os.Stat(dockerEnvFile); err == nil {
		return true
	}

	b, err := os.ReadFile(cgroupFile)
	if err != nil {
		return false
	}

	s := string(b)
	return strings.Contains(s, "docker") || strings.Contains(s, "containerd") || strings.Contains(s, "kubepods")
}
