package service

import (
	"context"
	"log"
	"time"

	"freight/internal/domain"
	"freight/internal/geo"
	"freight/internal/redis"
	"freight/internal/repository"
)

const windowLockTTL = 10 * time.Minute

// AggregatorService folds completed bookings into per-route utilization
// statistics over fixed time windows.
type AggregatorService struct {
	bookingRepo repository.BookingRepository
	routeRepo   repository.RouteUtilizationRepository
	lockStore   redis.WindowLockInterface
	marker      redis.CompletionMarkerInterface
	distances   geo.DistanceSource
}

// NewAggregatorService creates a new AggregatorService.
func NewAggregatorService(
	bookingRepo repository.BookingRepository,
	routeRepo repository.RouteUtilizationRepository,
	lockStore redis.WindowLockInterface,
	marker redis.CompletionMarkerInterface,
	distances geo.DistanceSource,
) *AggregatorService {
	return &AggregatorService{
		bookingRepo: bookingRepo,
		routeRepo:   routeRepo,
		lockStore:   lockStore,
		marker:      marker,
		distances:   distances,
	}
}

// WindowKey names an aggregation window for locking and dedup.
func WindowKey(start time.Time) string {
	return start.UTC().Format("2006-01-02T15")
}

// routeAccum accumulates one directed pair's fresh bookings within a window.
type routeAccum struct {
	count      int
	totalKm    float64
	bookingIDs []string
}

// AggregateWindow folds the bookings completed within [start, end) into
// route utilization rows. Runs for the same window serialize on a
// distributed lock; a booking already counted for the window (for instance
// via a redelivered completion event) is skipped, so re-running increments
// only what is new. Pairing considers the whole window, stored rows
// included, so a return folded in a later run still credits the outbound
// row from an earlier one.
func (s *AggregatorService) AggregateWindow(ctx context.Context, start, end time.Time) error {
	windowKey := WindowKey(start)

	locked, err := s.lockStore.AcquireWindowLock(ctx, windowKey, windowLockTTL)
	if err != nil {
		return err
	}
	if !locked {
		return ErrAggregationInProgress
	}
	defer func() {
		_ = s.lockStore.ReleaseWindowLock(ctx, windowKey)
	}()

	bookings, err := s.bookingRepo.ListCompletedBetween(ctx, start, end)
	if err != nil {
		return err
	}

	// Group fresh bookings by directed city pair. Dedup happens before
	// grouping so a duplicate never reaches the counters.
	accums := make(map[[2]string]*routeAccum)
	for _, b := range bookings {
		if err := ctx.Err(); err != nil {
			s.releaseClaims(ctx, windowKey, accums)
			return err
		}

		fresh, err := s.marker.MarkProcessed(ctx, windowKey, b.ID)
		if err != nil {
			s.releaseClaims(ctx, windowKey, accums)
			return err
		}
		if !fresh {
			continue
		}

		pair := [2]string{b.Origin.City, b.Destination.City}
		acc := accums[pair]
		if acc == nil {
			acc = &routeAccum{}
			accums[pair] = acc
		}
		acc.count++
		acc.totalKm += s.distances.Distance(b.Origin, b.Destination)
		acc.bookingIDs = append(acc.bookingIDs, b.ID)
	}

	// Every touched pair and its reverse gets reconciled against the stored
	// window state, snapshotted before any increment runs.
	pairs := make(map[[2]string]bool)
	for p := range accums {
		pairs[p] = true
		pairs[[2]string{p[1], p[0]}] = true
	}

	stored := make(map[[2]string]*domain.RouteUtilization)
	for p := range pairs {
		row, err := s.routeRepo.GetForPeriod(ctx, p[0], p[1], start)
		if err != nil && err != repository.ErrNotFound {
			s.releaseClaims(ctx, windowKey, accums)
			return err
		}
		stored[p] = row
	}

	// A failed pair is logged and skipped; its bookings' claims are
	// released so the next run folds them again.
	for p := range pairs {
		delta, ok := reconcilePair(p, accums, stored)
		if !ok {
			continue
		}
		if err := s.routeRepo.Increment(ctx, p[0], p[1], start, end, delta); err != nil {
			log.Printf("aggregation %s->%s window %s failed: %v", p[0], p[1], windowKey, err)
			if acc := accums[p]; acc != nil {
				s.releaseBookings(ctx, windowKey, acc.bookingIDs)
			}
		}
	}

	return nil
}

// reconcilePair derives the increment that moves a directed pair's row from
// its stored state to the state implied by the whole window: stored counts
// plus this run's fresh bookings, returns drawn from the reverse direction.
// Reports false when the pair needs no row or no change.
func reconcilePair(
	p [2]string,
	accums map[[2]string]*routeAccum,
	stored map[[2]string]*domain.RouteUtilization,
) (repository.RouteStatsDelta, bool) {
	fresh := accums[p]
	row := stored[p]

	var freshCount int
	var freshKm float64
	if fresh != nil {
		freshCount = fresh.count
		freshKm = fresh.totalKm
	}

	var outBefore, retBefore int
	var totalBefore, savedBefore float64
	if row != nil {
		outBefore = row.OutboundCount
		retBefore = row.ReturnCount
		totalBefore = row.EmptyKmTotal
		savedBefore = row.EmptyKmSaved
	}

	outTotal := outBefore + freshCount
	if outTotal == 0 {
		// Return-only activity lands on the reverse row.
		return repository.RouteStatsDelta{}, false
	}

	rev := [2]string{p[1], p[0]}
	retTotal := 0
	if revRow := stored[rev]; revRow != nil {
		retTotal += revRow.OutboundCount
	}
	if revFresh := accums[rev]; revFresh != nil {
		retTotal += revFresh.count
	}

	avgKm := pairAvgKm(freshKm, freshCount, row)

	var targetTotal, targetSaved float64
	if retTotal == 0 {
		// Every outbound trip drove back empty.
		targetTotal = avgKm * float64(outTotal)
	} else {
		matched := outTotal
		if retTotal < matched {
			matched = retTotal
		}
		targetSaved = avgKm * float64(matched)
	}

	delta := repository.RouteStatsDelta{
		OutboundCount: freshCount,
		ReturnCount:   retTotal - retBefore,
		EmptyKmTotal:  targetTotal - totalBefore,
		EmptyKmSaved:  targetSaved - savedBefore,
	}
	if delta == (repository.RouteStatsDelta{}) {
		return delta, false
	}
	return delta, true
}

// pairAvgKm recovers the average trip distance across the whole window. The
// stored row keeps no raw km, but its empty-km figures imply the average.
func pairAvgKm(freshKm float64, freshCount int, row *domain.RouteUtilization) float64 {
	totalKm := freshKm
	count := freshCount
	if row != nil && row.OutboundCount > 0 {
		totalKm += storedAvgKm(row) * float64(row.OutboundCount)
		count += row.OutboundCount
	}
	if count == 0 {
		return 0
	}
	return totalKm / float64(count)
}

func storedAvgKm(row *domain.RouteUtilization) float64 {
	if row.ReturnCount == 0 {
		return row.EmptyKmTotal / float64(row.OutboundCount)
	}
	matched := row.OutboundCount
	if row.ReturnCount < matched {
		matched = row.ReturnCount
	}
	return row.EmptyKmSaved / float64(matched)
}

func (s *AggregatorService) releaseClaims(ctx context.Context, windowKey string, accums map[[2]string]*routeAccum) {
	for _, acc := range accums {
		s.releaseBookings(ctx, windowKey, acc.bookingIDs)
	}
}

func (s *AggregatorService) releaseBookings(ctx context.Context, windowKey string, bookingIDs []string) {
	for _, id := range bookingIDs {
		if err := s.marker.ClearProcessed(ctx, windowKey, id); err != nil {
			log.Printf("releasing claim %s in window %s failed: %v", id, windowKey, err)
		}
	}
}

// HandleCompletion is the at-least-once event path. A completion event for a
// still-open window is a no-op; the hourly run folds the window once it
// closes. An event redelivered after the window closed triggers a catch-up
// run, which the shared dedup markers keep from double-counting anything the
// scheduled run already folded.
func (s *AggregatorService) HandleCompletion(ctx context.Context, completedAt time.Time, now time.Time) error {
	if completedAt.IsZero() {
		return nil
	}

	start := completedAt.UTC().Truncate(time.Hour)
	end := start.Add(time.Hour)
	if now.Before(end) {
		return nil
	}

	err := s.AggregateWindow(ctx, start, end)
	if err == ErrAggregationInProgress {
		// Another run already owns the window; it will fold this booking.
		return nil
	}
	return err
}
