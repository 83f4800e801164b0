package jobs

import (
	"context"
	"log/slog"
	"time"
)

// CourierSweeper re-drives courier assignment for orders nobody is working on.
type CourierSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// NewCourierSweepJob retries PENDING_COURIER orders left without an
// outstanding offer and expires offers older than the offer window.
func NewCourierSweepJob(couriers CourierSweeper, every time.Duration, logger *slog.Logger) *Job {
	return NewJob("courier_sweep", every, couriers.Sweep, logger)
}
