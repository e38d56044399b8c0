package snapshot

import "errors"

// ErrSnapshotWrite is raised when the one-transaction commit in Create
// fails; the caller rolls back and the learner evaluation stays
// judged=false for retry (spec §4.7, §7).
var ErrSnapshotWrite = errors.New("snapshot: write failed")

// ErrNotFound is returned by Get/SoftDelete when no non-deleted snapshot
// matches the id.
var ErrNotFound = errors.New("snapshot: not found")

// ErrAlreadyDeleted is returned by SoftDelete when the snapshot is already
// archived.
var ErrAlreadyDeleted = errors.New("snapshot: already deleted")

func wrapWriteError(err error) error {
	return errors.Join(ErrSnapshotWrite, err)
}
