package container

import (
	"os"
	"strings"
)

var cgroupMarkers = []string{"docker", "containerd", "kubepods", "podman"}

// IsContainerised reports whether the process appears to run inside a
// container. Checks the usual signals: /.dockerenv, container runtimes in
// /proc/1/cgroup and the Kubernetes service environment.
func IsContainerised() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}
	return cgroupMentionsRuntime()
}

func cgroupMentionsRuntime() bool {
	data, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}
	content := string(data)
	for _, marker := range cgroupMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
