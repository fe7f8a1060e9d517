package process

import "testing"

// Real process trees are only killed by the renderer tests that launch a
// browser. Here we check the guard paths never signal anything.

func TestKillProcessGroup_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	// -0 would target our own process group.
	KillProcessGroup(0)
	KillProcessGroup(-1)
}

func TestKillProcessGroup_UnknownPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}
