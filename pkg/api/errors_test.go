package api

import (
	"fmt"
	"net/http"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"

	"github.com/mentormind/mentormind/pkg/chat"
	"github.com/mentormind/mentormind/pkg/snapshot"
)

func TestMapSnapshotError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{
			name:       "not found maps to 404",
			err:        fmt.Errorf("wrapped: %w", snapshot.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectMsg:  "snapshot not found",
		},
		{
			name:       "already deleted maps to 409",
			err:        snapshot.ErrAlreadyDeleted,
			expectCode: http.StatusConflict,
			expectMsg:  "already deleted",
		},
		{
			name:       "write error maps to 500",
			err:        fmt.Errorf("wrapped: %w", snapshot.ErrSnapshotWrite),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "write failed",
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapSnapshotError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
			assert.Contains(t, he.Error(), tt.expectMsg)
		})
	}
}

func TestMapChatError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
	}{
		{"snapshot unavailable maps to 404", chat.ErrSnapshotUnavailable, http.StatusNotFound},
		{"turn limit maps to 429", chat.ErrTurnLimitReached, http.StatusTooManyRequests},
		{"validation maps to 422", fmt.Errorf("wrapped: %w", chat.ErrValidation), http.StatusUnprocessableEntity},
		{"unknown error maps to 500", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapChatError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
		})
	}
}
