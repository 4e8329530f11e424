package provider

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"health_dashboard/internal/models"
)

func newTestSimulated(seed int64) *Simulated {
	return NewSimulated(Latency{}, rand.New(rand.NewSource(seed)), nil)
}

func TestSimulated_InitializeAndPermissions(t *testing.T) {
	sim := newTestSimulated(1)

	msg, err := sim.Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if msg != simInitializeResult {
		t.Fatalf("Initialize msg=%q", msg)
	}

	msg, err = sim.RequestPermissions(context.Background(), models.NewDataTypeSet(models.DataTypeSteps))
	if err != nil {
		t.Fatalf("RequestPermissions: %v", err)
	}
	if msg != simPermissionResult {
		t.Fatalf("RequestPermissions msg=%q", msg)
	}
}

func TestSimulated_ReadSteps_SingleBucketInRange(t *testing.T) {
	sim := newTestSimulated(42)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r := models.NewTimeRange(day, day.Add(24*time.Hour))

	for i := 0; i < 50; i++ {
		got, err := sim.ReadSteps(context.Background(), r)
		if err != nil {
			t.Fatalf("ReadSteps: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("want 1 bucket, got %d", len(got))
		}
		s := got[0]
		if s.Count < simStepsMin || s.Count >= simStepsMin+simStepsSpread {
			t.Fatalf("count %d outside [8000, 10000)", s.Count)
		}
		if s.StartTime != r.StartMillis || s.EndTime != r.EndMillis {
			t.Fatalf("bucket %+v does not span %+v", s, r)
		}
	}
}

func TestSimulated_ReadHeartRate_TimestampInsideRange(t *testing.T) {
	sim := newTestSimulated(7)
	end := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := models.NewTimeRange(end.Add(-time.Hour), end)

	for i := 0; i < 50; i++ {
		got, err := sim.ReadHeartRate(context.Background(), r)
		if err != nil {
			t.Fatalf("ReadHeartRate: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("want 1 reading, got %d", len(got))
		}
		hr := got[0]
		if hr.HeartRate < simHeartRateMin || hr.HeartRate >= simHeartRateMin+simHeartRateSpread {
			t.Fatalf("bpm %.0f outside [60, 100)", hr.HeartRate)
		}
		if !r.Contains(hr.Timestamp) {
			t.Fatalf("timestamp %d outside %+v", hr.Timestamp, r)
		}
	}
}

func TestSimulated_ReadHeartRate_ZeroSpan(t *testing.T) {
	sim := newTestSimulated(3)
	r := models.TimeRange{StartMillis: 1000, EndMillis: 1000}

	got, err := sim.ReadHeartRate(context.Background(), r)
	if err != nil {
		t.Fatalf("ReadHeartRate: %v", err)
	}
	if got[0].Timestamp != 1000 {
		t.Fatalf("timestamp=%d, want 1000", got[0].Timestamp)
	}
}

func TestSimulated_SameSeedSameValues(t *testing.T) {
	r := models.TimeRange{StartMillis: 0, EndMillis: 86_400_000}
	a, _ := newTestSimulated(99).ReadSteps(context.Background(), r)
	b, _ := newTestSimulated(99).ReadSteps(context.Background(), r)
	if a[0].Count != b[0].Count {
		t.Fatalf("same seed gave %d and %d", a[0].Count, b[0].Count)
	}
}

func TestSimulated_LatencyHonorsContext(t *testing.T) {
	sim := NewSimulated(Latency{Initialize: time.Minute}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Initialize(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
