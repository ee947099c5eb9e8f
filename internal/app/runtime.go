package app

import (
	"os"
	"sync/atomic"
)

// TestModeEnv set to "1" makes the binaries return before any runtime start-up.
const TestModeEnv = "MANAGE_TEST_MODE"

const (
	modeUnknown int32 = iota
	modeOff
	modeOn
)

var testMode atomic.Int32

// InTestMode reports whether the application should skip runtime side effects.
// The environment is read once and cached.
func InTestMode() bool {
	switch testMode.Load() {
	case modeOff:
		return false
	case modeOn:
		return true
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment after it changed.
func RefreshTestMode() bool {
	on := os.Getenv(TestModeEnv) == "1"
	if on {
		testMode.Store(modeOn)
	} else {
		testMode.Store(modeOff)
	}
	return on
}
