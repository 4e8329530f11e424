package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/logger"
	"health_dashboard/internal/models"
	"health_dashboard/internal/provider"
	"health_dashboard/internal/repository"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"
)

// ErrOperationInProgress rejects Initialize or RequestPermissions while
// another session operation is running.
var ErrOperationInProgress = errors.New("another health session operation is in progress")

// ErrNoDataTypes rejects a permission request that names no data type.
var ErrNoDataTypes = errors.New("at least one data type must be requested")

// SessionConfig tunes a HealthFacade.
type SessionConfig struct {
	// RequiredPlatform enables the facade-level platform guard. Empty disables it.
	RequiredPlatform string
	// Platform is the platform the process runs on. Empty means runtime.GOOS.
	Platform string
	// AutoRefresh triggers a Refresh right after permissions are granted.
	AutoRefresh bool
	// OperationTimeout bounds each session operation. Zero means no bound.
	OperationTimeout time.Duration
	// Location defines "today". Nil means time.Local.
	Location *time.Location
}

// HealthFacade owns one health session: its state machine, the derived
// metrics and the change notifications. All methods are safe for concurrent use.
type HealthFacade struct {
	provider provider.Provider
	events   repository.EventRepo // optional audit sink
	cfg      SessionConfig
	log      *logger.Logger
	now      func() time.Time
	gate     opGate

	mu    sync.RWMutex // guards state
	state models.SessionSnapshot

	lmu       sync.Mutex // guards listeners, nextID
	listeners map[int]func(models.SessionSnapshot)
	nextID    int
}

// NewHealthFacade builds a facade over p. events may be nil.
func NewHealthFacade(p provider.Provider, events repository.EventRepo, cfg SessionConfig, log *logger.Logger) *HealthFacade {
	if cfg.Platform == "" {
		cfg.Platform = runtime.GOOS
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	f := &HealthFacade{
		provider:  p,
		events:    events,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
		gate:      newOpGate(),
		listeners: make(map[int]func(models.SessionSnapshot)),
	}
	f.state = models.SessionSnapshot{Phase: models.PhaseUninitialized, UpdatedAt: f.now().UTC()}
	return f
}

// Initialize starts a new session from scratch, whatever the current phase.
func (f *HealthFacade) Initialize(ctx context.Context) (string, error) {
	if !f.gate.tryAcquire() {
		return "", ErrOperationInProgress
	}
	defer f.gate.release()

	ctx, cancel := f.opContext(ctx)
	defer cancel()

	f.update(func(s *models.SessionSnapshot) {
		*s = models.SessionSnapshot{Phase: models.PhaseConnecting, IsLoading: true}
	})

	if f.cfg.RequiredPlatform != "" && f.cfg.Platform != f.cfg.RequiredPlatform {
		err := healtherr.PlatformUnsupported(f.cfg.Platform, f.cfg.RequiredPlatform)
		f.fail(ctx, models.EventInitialize, err)
		return "", err
	}

	msg, err := f.provider.Initialize(ctx)
	if err != nil {
		f.fail(ctx, models.EventInitialize, err)
		return "", err
	}

	f.update(func(s *models.SessionSnapshot) {
		s.Phase = models.PhaseConnected
		s.IsInitialized = true
		s.IsLoading = false
		s.Error = nil
	})
	f.log.Infow("session_initialized", "result", msg)
	f.record(ctx, models.EventInitialize, "health session initialized", nil)
	return msg, nil
}

// RequestPermissions asks for read access to types. It needs an established
// connection. On success the session becomes Ready and, with AutoRefresh,
// metrics are fetched right away.
func (f *HealthFacade) RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	msg, err := f.requestPermissions(ctx, types)
	if err != nil {
		return "", err
	}
	if f.cfg.AutoRefresh {
		if rerr := f.Refresh(ctx); rerr != nil {
			f.log.Warnw("session_auto_refresh_failed", "error", rerr)
		}
	}
	return msg, nil
}

func (f *HealthFacade) requestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	if types.Len() == 0 {
		return "", ErrNoDataTypes
	}
	if !f.gate.tryAcquire() {
		return "", ErrOperationInProgress
	}
	defer f.gate.release()

	if !f.Snapshot().IsInitialized {
		return "", healtherr.NotInitialized("health session not initialized: call initialize first")
	}

	ctx, cancel := f.opContext(ctx)
	defer cancel()

	requested := types.Sorted()
	f.update(func(s *models.SessionSnapshot) {
		s.Phase = models.PhasePermissionPending
		s.IsLoading = true
		s.Error = nil
	})

	msg, err := f.provider.RequestPermissions(ctx, types)
	if err != nil {
		denied := healtherr.DeniedTypes(err)
		f.update(func(s *models.SessionSnapshot) {
			s.HasPermissions = false
			s.GrantedTypes = nil
			s.DeniedTypes = denied
		})
		f.fail(ctx, models.EventPermissions, err)
		return "", err
	}

	f.update(func(s *models.SessionSnapshot) {
		s.Phase = models.PhaseReady
		s.HasPermissions = true
		s.GrantedTypes = requested
		s.DeniedTypes = nil
		s.IsLoading = false
		s.Error = nil
	})
	f.log.Infow("session_permissions_granted", "types", requested)
	f.record(ctx, models.EventPermissions, "permissions granted", map[string]any{"data_types": requested})
	return msg, nil
}

// Refresh re-fetches today's steps and the latest heart rate. It waits for
// any running session operation. A failure of one metric is logged and
// leaves that value untouched; only both failing is an error.
func (f *HealthFacade) Refresh(ctx context.Context) error {
	if err := f.gate.acquire(ctx); err != nil {
		return err
	}
	defer f.gate.release()

	if f.Snapshot().Phase != models.PhaseReady {
		return healtherr.NotInitialized("health session not ready: initialize and grant permissions first")
	}

	ctx, cancel := f.opContext(ctx)
	defer cancel()

	f.update(func(s *models.SessionSnapshot) { s.IsLoading = true })

	var (
		steps           int64
		heartRate       *float64
		stepsErr, hrErr error
		wg              conc.WaitGroup
	)
	wg.Go(func() {
		stepsErr = catch(func() error {
			var err error
			steps, err = f.readTodaySteps(ctx)
			return err
		})
	})
	wg.Go(func() {
		hrErr = catch(func() error {
			var err error
			heartRate, err = f.readLatestHeartRate(ctx)
			return err
		})
	})
	wg.Wait()

	if stepsErr != nil && hrErr != nil {
		err := multierr.Combine(
			fmt.Errorf("steps: %w", stepsErr),
			fmt.Errorf("heart rate: %w", hrErr),
		)
		msg := "failed to refresh health data: " + err.Error()
		f.update(func(s *models.SessionSnapshot) {
			s.IsLoading = false
			s.Error = &msg
		})
		f.log.Errorw("session_refresh_failed", "error", err)
		f.record(ctx, models.EventError, "refresh failed for all metrics", map[string]any{
			"steps_kind":      string(healtherr.KindOf(stepsErr)),
			"heart_rate_kind": string(healtherr.KindOf(hrErr)),
		})
		return err
	}

	if stepsErr != nil {
		f.log.Warnw("session_refresh_steps_failed", "error", stepsErr)
	}
	if hrErr != nil {
		f.log.Warnw("session_refresh_heart_rate_failed", "error", hrErr)
	}

	now := f.now().UTC()
	f.update(func(s *models.SessionSnapshot) {
		if stepsErr == nil {
			s.TodaySteps = &steps
		}
		if hrErr == nil {
			s.LatestHeartRate = heartRate
		}
		s.IsLoading = false
		s.Error = nil
		s.LastRefreshAt = &now
	})
	f.record(ctx, models.EventRefresh, "health data refreshed", map[string]any{
		"steps_ok":      stepsErr == nil,
		"heart_rate_ok": hrErr == nil,
	})
	return nil
}

// TodaySteps sums today's step buckets. No data is 0 steps.
func (f *HealthFacade) TodaySteps(ctx context.Context) (int64, error) {
	if err := f.requireAccess(); err != nil {
		return 0, err
	}
	ctx, cancel := f.opContext(ctx)
	defer cancel()
	return f.readTodaySteps(ctx)
}

// LatestHeartRate returns the most recent reading of the trailing hour, or
// nil when there is none.
func (f *HealthFacade) LatestHeartRate(ctx context.Context) (*float64, error) {
	if err := f.requireAccess(); err != nil {
		return nil, err
	}
	ctx, cancel := f.opContext(ctx)
	defer cancel()
	return f.readLatestHeartRate(ctx)
}

// Snapshot returns a copy of the current session state.
func (f *HealthFacade) Snapshot() models.SessionSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return cloneSnapshot(f.state)
}

// Subscribe registers fn to receive every state change. The returned func
// unregisters it. fn runs on the goroutine that made the change and must not block.
func (f *HealthFacade) Subscribe(fn func(models.SessionSnapshot)) func() {
	f.lmu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.lmu.Lock()
			delete(f.listeners, id)
			f.lmu.Unlock()
		})
	}
}

func (f *HealthFacade) readTodaySteps(ctx context.Context) (int64, error) {
	samples, err := f.provider.ReadSteps(ctx, DayRange(f.now(), f.cfg.Location))
	if err != nil {
		return 0, err
	}
	return SumSteps(samples), nil
}

func (f *HealthFacade) readLatestHeartRate(ctx context.Context) (*float64, error) {
	samples, err := f.provider.ReadHeartRate(ctx, TrailingWindow(f.now(), heartRateWindow))
	if err != nil {
		return nil, err
	}
	bpm, ok := LatestHeartRate(samples)
	if !ok {
		return nil, nil
	}
	return &bpm, nil
}

func (f *HealthFacade) requireAccess() error {
	s := f.Snapshot()
	if !s.IsInitialized {
		return healtherr.NotInitialized("health session not initialized: call initialize first")
	}
	if !s.HasPermissions {
		return healtherr.NotInitialized("health permissions not granted: call request permissions first")
	}
	return nil
}

func (f *HealthFacade) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.cfg.OperationTimeout > 0 {
		return context.WithTimeout(ctx, f.cfg.OperationTimeout)
	}
	return context.WithCancel(ctx)
}

// fail moves the session to Errored with a user-facing message.
func (f *HealthFacade) fail(ctx context.Context, op string, err error) {
	msg := healtherr.UserMessage(err)
	f.update(func(s *models.SessionSnapshot) {
		s.Phase = models.PhaseErrored
		s.IsLoading = false
		s.Error = &msg
	})
	f.log.Errorw("session_operation_failed", "op", op, "kind", healtherr.KindOf(err), "error", err)
	f.record(ctx, models.EventError, op+" failed", map[string]any{
		"op":   op,
		"kind": string(healtherr.KindOf(err)),
	})
}

// update applies mut under the lock and notifies listeners outside it.
func (f *HealthFacade) update(mut func(*models.SessionSnapshot)) {
	f.mu.Lock()
	mut(&f.state)
	f.state.UpdatedAt = f.now().UTC()
	snap := cloneSnapshot(f.state)
	f.mu.Unlock()

	f.lmu.Lock()
	fns := make([]func(models.SessionSnapshot), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.lmu.Unlock()

	for _, fn := range fns {
		fn(cloneSnapshot(snap))
	}
}

// record appends an audit event. It never carries health readings.
func (f *HealthFacade) record(ctx context.Context, typ, desc string, meta map[string]any) {
	if f.events == nil {
		return
	}
	ev := models.SessionEvent{
		OccurredAt:  f.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := f.events.Append(context.WithoutCancel(ctx), ev); err != nil {
		f.log.Warnw("session_event_append_failed", "type", typ, "error", err)
	}
}

// catch runs fn and turns a panic into an error.
func catch(fn func() error) error {
	var (
		pc  panics.Catcher
		err error
	)
	pc.Try(func() { err = fn() })
	if r := pc.Recovered(); r != nil {
		return r.AsError()
	}
	return err
}

func cloneSnapshot(s models.SessionSnapshot) models.SessionSnapshot {
	out := s
	if s.TodaySteps != nil {
		v := *s.TodaySteps
		out.TodaySteps = &v
	}
	if s.LatestHeartRate != nil {
		v := *s.LatestHeartRate
		out.LatestHeartRate = &v
	}
	if s.Error != nil {
		v := *s.Error
		out.Error = &v
	}
	if s.LastRefreshAt != nil {
		v := *s.LastRefreshAt
		out.LastRefreshAt = &v
	}
	out.GrantedTypes = append([]models.DataType(nil), s.GrantedTypes...)
	out.DeniedTypes = append([]models.DataType(nil), s.DeniedTypes...)
	return out
}
