package domain

import "time"

// RouteUtilization holds per-period statistics for a directed city pair.
// One row exists per (origin, destination, period); completed bookings are
// folded in incrementally, never recomputed from scratch.
type RouteUtilization struct {
	ID             string
	OriginCity     string
	DestCity       string
	OutboundCount  int
	ReturnCount    int
	UtilizationPct float64
	EmptyKmTotal   float64
	EmptyKmSaved   float64
	PeriodStart    time.Time
	PeriodEnd      time.Time
}
