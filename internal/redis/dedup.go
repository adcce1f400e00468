package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// markerTTL outlives the aggregation window comfortably so redelivered
// completion events keep deduplicating after the window closes.
const markerTTL = 48 * time.Hour

// CompletionMarker deduplicates booking-completed events per aggregation
// window. The completion signal is at-least-once, so a booking may arrive
// more than once; only the first marking wins.
type CompletionMarker struct {
	client *redis.Client
}

// NewCompletionMarker creates a new CompletionMarker.
func NewCompletionMarker(client *redis.Client) *CompletionMarker {
	return &CompletionMarker{client: client}
}

// MarkProcessed records that a booking was folded into a window. Returns
// true on first sight, false when the booking was already counted.
func (m *CompletionMarker) MarkProcessed(ctx context.Context, windowKey, bookingID string) (bool, error) {
	key := fmt.Sprintf("aggregated:%s:%s", windowKey, bookingID)

	return m.client.SetNX(ctx, key, "1", markerTTL).Result()
}

// ClearProcessed releases a booking's claim. The aggregator calls this when
// folding the booking's route failed after the claim was taken, so the next
// run retries instead of skipping the booking as a duplicate.
func (m *CompletionMarker) ClearProcessed(ctx context.Context, windowKey, bookingID string) error {
	key := fmt.Sprintf("aggregated:%s:%s", windowKey, bookingID)

	return m.client.Del(ctx, key).Err()
}
