// Package idgen generates the prefixed identifiers named in spec §6
// (eval_, judge_, msg_, q_, resp_) for every ent entity except the
// evaluation snapshot, which uses its own date-derived format (see
// pkg/snapshot.NewSnapshotID).
package idgen

import "github.com/google/uuid"

// New returns prefix + "_" + a random UUIDv4, the same uuid.New().String()
// generation the teacher's service layer uses for every entity id, with a
// domain prefix layered on top per spec §6's identifier formats.
func New(prefix string) string {
	return prefix + "_" + uuid.New().String()
}
