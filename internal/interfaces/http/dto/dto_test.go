package dto

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/funnel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeFunnelNotFound, http.StatusNotFound},
		{shared.ErrCodeStore, http.StatusServiceUnavailable},
		{shared.ErrCodeRefreshTrigger, http.StatusBadGateway},
		{shared.ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{shared.ErrCodeDuplicate, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID(shared.ErrCodeNotFound, "Funnel not found", "req-123")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, shared.ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Funnel not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
}

func TestNewErrorResponseWithData(t *testing.T) {
	payload := map[string]bool{"success": false}
	resp := NewErrorResponseWithData(shared.ErrCodeRefreshTrigger, "1 of 2 refresh endpoints failed", "req-1", payload)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotNil(t, decoded["data"])
	assert.Equal(t, shared.ErrCodeRefreshTrigger, decoded["error"].(map[string]any)["code"])
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "type", Message: "Must be a known funnel type"}}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Equal(t, details, resp.Error.Details)
}

func TestNewListResponse(t *testing.T) {
	resp := NewListResponse([]string{"a", "b"}, 2, 50)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Total)
	assert.Equal(t, 50, resp.Meta.Limit)
	assert.Nil(t, resp.Error)
}

func TestFormatBRL(t *testing.T) {
	got := FormatBRL(decimal.RequireFromString("1234.5"))

	assert.True(t, strings.HasPrefix(got, "R$"), got)
	assert.True(t, strings.HasSuffix(got, "1.234,50"), got)
	assert.True(t, strings.HasSuffix(FormatBRL(decimal.Zero), "0,00"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12,5%", FormatPercent(decimal.RequireFromString("12.5")))
	assert.Equal(t, "33,3%", FormatPercent(decimal.RequireFromString("33.3333")))
	assert.Equal(t, "0,0%", FormatPercent(decimal.Zero))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "12.345", FormatCount(12345))
	assert.Equal(t, "7", FormatCount(7))
}
