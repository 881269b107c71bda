package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrainOutcome(t *testing.T) {
	t.Run("all success", func(t *testing.T) {
		assert.Equal(t, "Synced 2 offline change(s).", DrainOutcome(2, 0))
	})

	t.Run("all failed", func(t *testing.T) {
		assert.Equal(t, "Failed to sync 3 offline change(s). They will be retried.", DrainOutcome(0, 3))
	})

	t.Run("partial", func(t *testing.T) {
		assert.Equal(t, "Synced 1 offline change(s); 2 failed and will be retried.", DrainOutcome(1, 2))
	})
}
