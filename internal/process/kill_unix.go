//go:build !windows

// Package process terminates browser process trees left by renderers.
package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group led by pid, taking
// down Chrome's helper processes with it. Non-positive pids are ignored.
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; the launcher's own Kill runs afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
