package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInflightGuardMarkOKBeforeRelease(t *testing.T) {
	guard := NewInflightGuard("test-model", EndpointChatCompletions, true)

	assert.False(t, guard.IsOK())
	guard.MarkOK()
	assert.True(t, guard.IsOK())

	guard.Release()
	assert.True(t, guard.IsOK())
}

// TestInflightGuardReleaseWithoutMarkOK covers spec testable property 8/9:
// a guard released without MarkOK records a failed outcome.
func TestInflightGuardReleaseWithoutMarkOK(t *testing.T) {
	guard := NewInflightGuard("test-model", EndpointCompletions, false)

	guard.Release()
	assert.False(t, guard.IsOK())
}

func TestInflightGuardReleaseIsIdempotent(t *testing.T) {
	guard := NewInflightGuard("test-model", EndpointEmbeddings, false)

	guard.MarkOK()
	guard.Release()
	assert.NotPanics(t, func() {
		guard.Release()
	})
}
