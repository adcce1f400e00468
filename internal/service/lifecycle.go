package service

import (
	"time"

	"freight/internal/domain"
)

// BookingEvent is a lifecycle event applied to a booking.
type BookingEvent string

const (
	EventAssignDriver BookingEvent = "ASSIGN_DRIVER"
	EventDriverAccept BookingEvent = "DRIVER_ACCEPT"
	EventDriverReach  BookingEvent = "DRIVER_REACH"
	EventStartLoading BookingEvent = "START_LOADING"
	EventStartTransit BookingEvent = "START_TRANSIT"
	EventDeliver      BookingEvent = "DELIVER"
	EventComplete     BookingEvent = "COMPLETE"
	EventCancel       BookingEvent = "CANCEL"
	EventReject       BookingEvent = "REJECT"
)

// transitions maps (current status, event) to the next status. A pair absent
// from the table is an invalid transition; there is no skipping forward.
var transitions = map[domain.BookingStatus]map[BookingEvent]domain.BookingStatus{
	domain.BookingStatusPending: {
		EventAssignDriver: domain.BookingStatusDriverAssigned,
	},
	domain.BookingStatusDriverAssigned: {
		EventDriverAccept: domain.BookingStatusDriverAccepted,
	},
	domain.BookingStatusDriverAccepted: {
		EventDriverReach: domain.BookingStatusDriverReached,
	},
	domain.BookingStatusDriverReached: {
		EventStartLoading: domain.BookingStatusLoadingStarted,
	},
	domain.BookingStatusLoadingStarted: {
		EventStartTransit: domain.BookingStatusInTransit,
	},
	domain.BookingStatusInTransit: {
		EventDeliver: domain.BookingStatusDelivered,
	},
	domain.BookingStatusDelivered: {
		EventComplete: domain.BookingStatusCompleted,
	},
}

// NextStatus resolves the status an event leads to from the current one.
// Cancel and Reject are absorbing and valid from any non-terminal status.
func NextStatus(current domain.BookingStatus, event BookingEvent) (domain.BookingStatus, error) {
	if event == EventCancel || event == EventReject {
		if current.Terminal() {
			return "", ErrInvalidTransition
		}
		if event == EventCancel {
			return domain.BookingStatusCancelled, nil
		}
		return domain.BookingStatusRejected, nil
	}

	next, ok := transitions[current][event]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// ApplyTransition mutates the booking to the event's target status and stamps
// the matching timestamp. The booking is untouched when the event is invalid.
func ApplyTransition(b *domain.Booking, event BookingEvent, now time.Time) error {
	next, err := NextStatus(b.Status, event)
	if err != nil {
		return err
	}

	now = now.UTC()
	b.Status = next

	switch event {
	case EventAssignDriver:
		b.AssignedAt = now
	case EventDriverAccept:
		b.AcceptedAt = now
	case EventDriverReach:
		b.ReachedAt = now
	case EventStartLoading:
		b.LoadingStartedAt = now
	case EventStartTransit:
		b.InTransitAt = now
	case EventDeliver:
		b.DeliveredAt = now
	case EventComplete:
		b.CompletedAt = now
	case EventCancel, EventReject:
		b.CancelledAt = now
	}

	return nil
}

// CanReassignDriver reports whether the assigned driver may still be changed.
// Once a driver has accepted, the assignment is fixed.
func CanReassignDriver(status domain.BookingStatus) bool {
	return status == domain.BookingStatusPending || status == domain.BookingStatusDriverAssigned
}
