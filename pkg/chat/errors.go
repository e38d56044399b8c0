package chat

import "errors"

// ErrSnapshotUnavailable is returned when the snapshot does not exist or is
// not status=active (spec §4.9 precondition 1, HTTP 404/409 equivalent).
var ErrSnapshotUnavailable = errors.New("chat: snapshot unavailable")

// ErrTurnLimitReached is returned when the atomic turn increment affects
// zero rows because chat_turn_count has already reached max_chat_turns
// (spec §4.9 precondition 3, HTTP 429 equivalent).
var ErrTurnLimitReached = errors.New("chat: turn limit reached")

// ErrValidation is returned for malformed requests: a non-init turn whose
// selected metrics are missing or number more than three (every non-init
// turn, not only the first, must carry them), or a mismatched init
// client_message_id.
var ErrValidation = errors.New("chat: validation failed")
