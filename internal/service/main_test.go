package service

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the package if any test leaves a goroutine behind. The
// report pipeline starts and stops its own worker, so a leak here means a
// lifecycle bug, not test noise.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
