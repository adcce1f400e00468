package redis

import (
	"context"
	"time"
)

// WindowLockInterface defines the interface for serializing aggregation runs.
type WindowLockInterface interface {
	AcquireWindowLock(ctx context.Context, windowKey string, ttl time.Duration) (bool, error)
	ReleaseWindowLock(ctx context.Context, windowKey string) error
}

// CompletionMarkerInterface defines the interface for deduplicating
// booking-completed events inside an aggregation window.
type CompletionMarkerInterface interface {
	// MarkProcessed records that a booking was folded into a window.
	// Returns true on first sight, false when already marked.
	MarkProcessed(ctx context.Context, windowKey, bookingID string) (bool, error)

	// ClearProcessed releases a booking's claim so a later run can fold it
	// again, used when the fold itself failed after claiming.
	ClearProcessed(ctx context.Context, windowKey, bookingID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ WindowLockInterface       = (*LockStore)(nil)
	_ CompletionMarkerInterface = (*CompletionMarker)(nil)
)
