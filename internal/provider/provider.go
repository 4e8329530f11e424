// Package provider implements raw health data acquisition.
//
// Two interchangeable backends satisfy Provider: Simulated manufactures
// plausible synthetic data for development, Delegating forwards to a vendor
// SDK handle. The composition root picks exactly one and injects it into the
// session facade, which never learns which one it got.
package provider

import (
	"context"
	"time"

	"health_dashboard/internal/models"
)

// Provider is the raw data-access contract. Failures are *healtherr.Error
// values.
type Provider interface {
	// Initialize establishes a session and returns a human-readable confirmation.
	Initialize(ctx context.Context) (string, error)
	// RequestPermissions issues one combined grant request for the whole set.
	RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error)
	// ReadSteps returns the step buckets overlapping r, in provider order.
	ReadSteps(ctx context.Context, r models.TimeRange) ([]models.StepSample, error)
	// ReadHeartRate returns the readings inside or overlapping r, in provider order.
	ReadHeartRate(ctx context.Context, r models.TimeRange) ([]models.HeartRateSample, error)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
