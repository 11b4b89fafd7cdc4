package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("Is matches by code", func(t *testing.T) {
		specific := ErrNotFound.WithMessage("Funnel not found")

		assert.ErrorIs(t, specific, ErrNotFound)
		assert.NotErrorIs(t, specific, ErrStore)
	})

	t.Run("Wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewStoreError("list funnels", cause)

		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "list funnels failed: connection refused", err.Error())
	})

	t.Run("As finds wrapped domain errors", func(t *testing.T) {
		err := fmt.Errorf("service: %w", ErrRefreshTrigger)

		var de *DomainError
		assert.True(t, errors.As(err, &de))
		assert.Equal(t, ErrCodeRefreshTrigger, de.Code)
	})

	t.Run("sentinels are not modified by helpers", func(t *testing.T) {
		_ = ErrInvalidInput.WithMessage("other").Wrap(errors.New("x"))

		assert.Equal(t, "Invalid input provided", ErrInvalidInput.Error())
	})
}
