package jobs

import (
	"context"
	"log/slog"
	"time"
)

type PrescriptionExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// NewPrescriptionExpiryJob rejects PENDING_PRESCRIPTION orders past the review window.
func NewPrescriptionExpiryJob(prescriptions PrescriptionExpirer, every time.Duration, logger *slog.Logger) *Job {
	return NewJob("prescription_expiry", every, prescriptions.ExpireOverdue, logger)
}
