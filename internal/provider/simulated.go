package provider

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"health_dashboard/internal/logger"
	"health_dashboard/internal/models"
)

// ----------- Simulation constants -----------
const (
	simStepsMin         = 8000 // lower bound of a full-day bucket
	simStepsSpread      = 2000 // counts land in [8000, 10000)
	simHeartRateMin     = 60   // bpm
	simHeartRateSpread  = 40   // readings land in [60, 100)
	simInitializeResult = "simulated health provider initialized successfully"
	simPermissionResult = "simulated permissions granted"
)

// Latency is the artificial delay applied per call, for UI timing realism.
type Latency struct {
	Initialize  time.Duration
	Permissions time.Duration
	Read        time.Duration
}

// DefaultLatency matches the delays the mobile app was tuned against.
var DefaultLatency = Latency{
	Initialize:  time.Second,
	Permissions: 500 * time.Millisecond,
	Read:        300 * time.Millisecond,
}

// Simulated is the synthetic provider. It never fails except when ctx is
// canceled during the artificial delay.
type Simulated struct {
	latency Latency
	log     *logger.Logger

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// NewSimulated returns a simulated provider. A nil rnd seeds from the clock;
// tests pass a fixed seed for reproducible values.
func NewSimulated(latency Latency, rnd *rand.Rand, log *logger.Logger) *Simulated {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Simulated{latency: latency, rnd: rnd, log: log}
}

var _ Provider = (*Simulated)(nil)

// Initialize simulates connecting to the health store.
func (s *Simulated) Initialize(ctx context.Context) (string, error) {
	s.log.Infow("simulated_provider_initialize", "latency", s.latency.Initialize)
	if err := sleepCtx(ctx, s.latency.Initialize); err != nil {
		return "", err
	}
	return simInitializeResult, nil
}

// RequestPermissions grants every requested type.
func (s *Simulated) RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	s.log.Infow("simulated_provider_request_permissions", "types", types.Sorted())
	if err := sleepCtx(ctx, s.latency.Permissions); err != nil {
		return "", err
	}
	return simPermissionResult, nil
}

// ReadSteps returns one bucket spanning r with a plausible full-day count.
func (s *Simulated) ReadSteps(ctx context.Context, r models.TimeRange) ([]models.StepSample, error) {
	if err := sleepCtx(ctx, s.latency.Read); err != nil {
		return nil, err
	}
	s.mu.Lock()
	count := int64(simStepsMin + s.rnd.Intn(simStepsSpread))
	s.mu.Unlock()

	return []models.StepSample{{
		Count:     count,
		StartTime: r.StartMillis,
		EndTime:   r.EndMillis,
	}}, nil
}

// ReadHeartRate returns one reading with its timestamp uniformly
// distributed inside r.
func (s *Simulated) ReadHeartRate(ctx context.Context, r models.TimeRange) ([]models.HeartRateSample, error) {
	if err := sleepCtx(ctx, s.latency.Read); err != nil {
		return nil, err
	}
	s.mu.Lock()
	bpm := float64(simHeartRateMin + s.rnd.Intn(simHeartRateSpread))
	ts := r.StartMillis
	if span := r.EndMillis - r.StartMillis; span > 0 {
		ts += s.rnd.Int63n(span + 1)
	}
	s.mu.Unlock()

	return []models.HeartRateSample{{HeartRate: bpm, Timestamp: ts}}, nil
}
