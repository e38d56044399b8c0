package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/mentormind/mentormind/pkg/chat"
	"github.com/mentormind/mentormind/pkg/snapshot"
)

// ErrInvalidInput is the api package's validation sentinel for malformed
// request bodies (spec §7's InvalidInput error kind).
var ErrInvalidInput = errors.New("invalid input")

// mapSnapshotError maps pkg/snapshot errors to HTTP error responses.
func mapSnapshotError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "snapshot not found")
	case errors.Is(err, snapshot.ErrAlreadyDeleted):
		return echo.NewHTTPError(http.StatusConflict, "snapshot already deleted")
	case errors.Is(err, snapshot.ErrSnapshotWrite):
		slog.Error("snapshot write error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "snapshot write failed")
	default:
		slog.Error("unexpected snapshot error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// mapChatError maps pkg/chat errors to the HTTP status codes spec §6
// assigns to POST /snapshots/{id}/chat: 404 snapshot unavailable, 422
// validation, 429 turn limit. The 409 for an archived snapshot is returned
// by chatHandler itself before Send is called.
func mapChatError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, chat.ErrSnapshotUnavailable):
		return echo.NewHTTPError(http.StatusNotFound, "snapshot unavailable")
	case errors.Is(err, chat.ErrTurnLimitReached):
		return echo.NewHTTPError(http.StatusTooManyRequests, "chat turn limit reached")
	case errors.Is(err, chat.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("unexpected chat error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
