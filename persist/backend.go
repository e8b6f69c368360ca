package persist

import "context"

// Backend is the pluggable storage medium for a store's mirror. The
// local Manager and the optional S3 backend both implement it, so the
// store's planner and applier never know which one is in play — the
// same separation the teacher draws between state.Manager and
// state.Backend.
type Backend interface {
	Read(ctx context.Context) (*Mirror, error)
	Write(ctx context.Context, m *Mirror) error
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}
