package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRuleRequest(t *testing.T) {
	t.Run("defaults to an explicitly active rule", func(t *testing.T) {
		req := NewRuleRequest().Build()

		require.NotNil(t, req.Active)
		assert.True(t, *req.Active)
		assert.NoError(t, req.Validate())
	})

	t.Run("WithActive pins the optional flag", func(t *testing.T) {
		req := NewRuleRequest().WithActive(false).Build()

		require.NotNil(t, req.Active)
		assert.False(t, *req.Active)
	})
}
