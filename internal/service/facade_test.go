package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/models"
)

// fakeProvider is a scriptable provider.Provider.
type fakeProvider struct {
	mu sync.Mutex

	initErr  error
	permErr  error
	steps    []models.StepSample
	stepsErr error
	hr       []models.HeartRateSample
	hrErr    error
	hrPanic  bool

	// block, when set, holds Initialize until it is closed.
	block chan struct{}

	calls      []string
	stepRanges []models.TimeRange
	hrRanges   []models.TimeRange
}

func (p *fakeProvider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakeProvider) Initialize(ctx context.Context) (string, error) {
	p.record("Initialize")
	if p.block != nil {
		<-p.block
	}
	return "connected", p.initErr
}

func (p *fakeProvider) RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	p.record("RequestPermissions")
	return "granted", p.permErr
}

func (p *fakeProvider) ReadSteps(ctx context.Context, r models.TimeRange) ([]models.StepSample, error) {
	p.record("ReadSteps")
	p.mu.Lock()
	p.stepRanges = append(p.stepRanges, r)
	p.mu.Unlock()
	return p.steps, p.stepsErr
}

func (p *fakeProvider) ReadHeartRate(ctx context.Context, r models.TimeRange) ([]models.HeartRateSample, error) {
	p.record("ReadHeartRate")
	p.mu.Lock()
	p.hrRanges = append(p.hrRanges, r)
	p.mu.Unlock()
	if p.hrPanic {
		panic("sdk exploded")
	}
	return p.hr, p.hrErr
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

var testNow = time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)

func newTestFacade(p *fakeProvider, cfg SessionConfig) (*HealthFacade, *fakeEventRepo) {
	if cfg.Platform == "" {
		cfg.Platform = "android"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	events := &fakeEventRepo{}
	f := NewHealthFacade(p, events, cfg, nil)
	f.now = func() time.Time { return testNow }
	return f, events
}

var stepsAndHR = models.NewDataTypeSet(models.DataTypeSteps, models.DataTypeHeartRate)

func readyFacade(t *testing.T, p *fakeProvider) (*HealthFacade, *fakeEventRepo) {
	t.Helper()
	f, events := newTestFacade(p, SessionConfig{})
	ctx := context.Background()
	if _, err := f.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := f.RequestPermissions(ctx, stepsAndHR); err != nil {
		t.Fatalf("RequestPermissions: %v", err)
	}
	return f, events
}

func TestFacade_HappyPath(t *testing.T) {
	p := &fakeProvider{
		steps: []models.StepSample{{Count: 1200}, {Count: 800}},
		hr: []models.HeartRateSample{
			{HeartRate: 70, Timestamp: 100},
			{HeartRate: 80, Timestamp: 500},
			{HeartRate: 75, Timestamp: 300},
		},
	}
	f, events := readyFacade(t, p)

	s := f.Snapshot()
	if s.Phase != models.PhaseReady || !s.IsInitialized || !s.HasPermissions {
		t.Fatalf("unexpected snapshot after grant: %+v", s)
	}
	if !reflect.DeepEqual(s.GrantedTypes, []models.DataType{models.DataTypeSteps, models.DataTypeHeartRate}) {
		t.Fatalf("granted=%v", s.GrantedTypes)
	}

	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	s = f.Snapshot()
	if s.TodaySteps == nil || *s.TodaySteps != 2000 {
		t.Fatalf("today steps=%v", s.TodaySteps)
	}
	if s.LatestHeartRate == nil || *s.LatestHeartRate != 80 {
		t.Fatalf("latest heart rate=%v", s.LatestHeartRate)
	}
	if s.Error != nil || s.IsLoading || s.LastRefreshAt == nil {
		t.Fatalf("unexpected snapshot after refresh: %+v", s)
	}

	want := []string{models.EventInitialize, models.EventPermissions, models.EventRefresh}
	if got := events.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events=%v; want %v", got, want)
	}
}

func TestFacade_QueryRanges(t *testing.T) {
	p := &fakeProvider{}
	loc := time.FixedZone("UTC-5", -5*3600)
	f, _ := newTestFacade(p, SessionConfig{Location: loc})
	ctx := context.Background()
	_, _ = f.Initialize(ctx)
	_, _ = f.RequestPermissions(ctx, stepsAndHR)

	if _, err := f.TodaySteps(ctx); err != nil {
		t.Fatalf("TodaySteps: %v", err)
	}
	if _, err := f.LatestHeartRate(ctx); err != nil {
		t.Fatalf("LatestHeartRate: %v", err)
	}

	midnight := time.Date(2024, 6, 1, 0, 0, 0, 0, loc)
	wantDay := models.NewTimeRange(midnight, midnight.Add(24*time.Hour))
	if p.stepRanges[0] != wantDay {
		t.Fatalf("steps range=%+v; want %+v", p.stepRanges[0], wantDay)
	}
	wantHR := models.NewTimeRange(testNow.Add(-60*time.Minute), testNow)
	if p.hrRanges[0] != wantHR {
		t.Fatalf("heart rate range=%+v; want %+v", p.hrRanges[0], wantHR)
	}
}

func TestFacade_TodaySteps_NoSamplesIsZero(t *testing.T) {
	f, _ := readyFacade(t, &fakeProvider{})
	got, err := f.TodaySteps(context.Background())
	if err != nil || got != 0 {
		t.Fatalf("TodaySteps = %d, %v; want 0, nil", got, err)
	}
}

func TestFacade_LatestHeartRate_EmptyIsAbsent(t *testing.T) {
	f, _ := readyFacade(t, &fakeProvider{})
	got, err := f.LatestHeartRate(context.Background())
	if err != nil || got != nil {
		t.Fatalf("LatestHeartRate = %v, %v; want nil, nil", got, err)
	}
}

func TestFacade_DerivedQueries_RequireAccess(t *testing.T) {
	p := &fakeProvider{}
	f, _ := newTestFacade(p, SessionConfig{})

	if _, err := f.TodaySteps(context.Background()); !errors.Is(err, healtherr.ErrNotInitialized) {
		t.Fatalf("TodaySteps before init: %v", err)
	}
	_, _ = f.Initialize(context.Background())
	if _, err := f.LatestHeartRate(context.Background()); !errors.Is(err, healtherr.ErrNotInitialized) {
		t.Fatalf("LatestHeartRate before grant: %v", err)
	}
	for _, c := range p.calls {
		if c == "ReadSteps" || c == "ReadHeartRate" {
			t.Fatalf("provider read issued without access: %v", p.calls)
		}
	}
}

func TestFacade_RequestPermissions_BeforeInitialize(t *testing.T) {
	p := &fakeProvider{}
	f, _ := newTestFacade(p, SessionConfig{})
	before := f.Snapshot()

	_, err := f.RequestPermissions(context.Background(), stepsAndHR)
	if !errors.Is(err, healtherr.ErrNotInitialized) {
		t.Fatalf("err=%v; want NotInitialized", err)
	}
	if p.callCount() != 0 {
		t.Fatalf("provider called: %v", p.calls)
	}
	if after := f.Snapshot(); after.Phase != before.Phase || after.Error != nil {
		t.Fatalf("state mutated: %+v", after)
	}
}

func TestFacade_RequestPermissions_EmptySetRejected(t *testing.T) {
	p := &fakeProvider{}
	f, events := newTestFacade(p, SessionConfig{AutoRefresh: true})
	if _, err := f.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	before := f.Snapshot()
	appended := len(events.types())

	for _, types := range []models.DataTypeSet{nil, models.NewDataTypeSet()} {
		_, err := f.RequestPermissions(context.Background(), types)
		if !errors.Is(err, ErrNoDataTypes) {
			t.Fatalf("err=%v; want ErrNoDataTypes", err)
		}
	}
	after := f.Snapshot()
	if after.Phase != before.Phase || after.HasPermissions || after.Phase == models.PhaseReady {
		t.Fatalf("state changed: %+v", after)
	}
	if p.callCount() != 1 {
		t.Fatalf("provider calls=%v; want only Initialize", p.calls)
	}
	if len(events.types()) != appended {
		t.Fatalf("events appended for a rejected request: %v", events.types())
	}
	if _, err := f.TodaySteps(context.Background()); !errors.Is(err, healtherr.ErrNotInitialized) {
		t.Fatalf("TodaySteps err=%v; want NotInitialized", err)
	}
}

func TestFacade_Refresh_NotReady(t *testing.T) {
	p := &fakeProvider{steps: []models.StepSample{{Count: 5}}}
	f, _ := newTestFacade(p, SessionConfig{})
	_, _ = f.Initialize(context.Background())

	err := f.Refresh(context.Background())
	if !errors.Is(err, healtherr.ErrNotInitialized) {
		t.Fatalf("err=%v; want NotInitialized", err)
	}
	s := f.Snapshot()
	if s.TodaySteps != nil || s.LatestHeartRate != nil {
		t.Fatalf("derived values mutated: %+v", s)
	}
	if s.Phase != models.PhaseConnected || s.Error != nil {
		t.Fatalf("refresh while not ready must not transition: %+v", s)
	}
}

func TestFacade_Refresh_StepsFailHeartRateSucceeds(t *testing.T) {
	p := &fakeProvider{
		steps: []models.StepSample{{Count: 4000}},
		hr:    []models.HeartRateSample{{HeartRate: 64, Timestamp: 1}},
	}
	f, _ := readyFacade(t, p)
	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	p.stepsErr = healtherr.ReadFailure("step count", errors.New("store busy"))
	p.hr = []models.HeartRateSample{{HeartRate: 91, Timestamp: 2}}

	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("partial failure must not fail refresh: %v", err)
	}
	s := f.Snapshot()
	if s.Error != nil {
		t.Fatalf("top-level error set: %q", *s.Error)
	}
	if s.TodaySteps == nil || *s.TodaySteps != 4000 {
		t.Fatalf("steps must keep previous value, got %v", s.TodaySteps)
	}
	if s.LatestHeartRate == nil || *s.LatestHeartRate != 91 {
		t.Fatalf("heart rate must update, got %v", s.LatestHeartRate)
	}
	if s.Phase != models.PhaseReady {
		t.Fatalf("phase=%s", s.Phase)
	}
}

func TestFacade_Refresh_StepsNeverSetStaysNil(t *testing.T) {
	p := &fakeProvider{
		stepsErr: errors.New("boom"),
		hr:       []models.HeartRateSample{{HeartRate: 70, Timestamp: 1}},
	}
	f, _ := readyFacade(t, p)
	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s := f.Snapshot(); s.TodaySteps != nil {
		t.Fatalf("today steps=%d; want nil", *s.TodaySteps)
	}
}

func TestFacade_Refresh_HeartRatePanicIsIsolated(t *testing.T) {
	p := &fakeProvider{steps: []models.StepSample{{Count: 10}}, hrPanic: true}
	f, _ := readyFacade(t, p)

	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s := f.Snapshot(); s.TodaySteps == nil || *s.TodaySteps != 10 {
		t.Fatalf("steps=%v", s.TodaySteps)
	}
}

func TestFacade_Refresh_BothFail(t *testing.T) {
	p := &fakeProvider{
		stepsErr: errors.New("steps down"),
		hrErr:    errors.New("hr down"),
	}
	f, events := readyFacade(t, p)

	err := f.Refresh(context.Background())
	if err == nil {
		t.Fatalf("expected combined error")
	}
	if !errors.Is(err, p.stepsErr) || !errors.Is(err, p.hrErr) {
		t.Fatalf("combined error lost causes: %v", err)
	}
	s := f.Snapshot()
	if s.Error == nil || s.Phase != models.PhaseReady || s.IsLoading {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	types := events.types()
	if types[len(types)-1] != models.EventError {
		t.Fatalf("last event=%s", types[len(types)-1])
	}

	// a later successful refresh clears the error
	p.stepsErr, p.hrErr = nil, nil
	if err := f.Refresh(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s := f.Snapshot(); s.Error != nil {
		t.Fatalf("error not cleared: %q", *s.Error)
	}
}

func TestFacade_Refresh_Idempotent(t *testing.T) {
	p := &fakeProvider{
		steps: []models.StepSample{{Count: 321}, {Count: 9}},
		hr:    []models.HeartRateSample{{HeartRate: 66, Timestamp: 10}},
	}
	f, _ := readyFacade(t, p)

	_ = f.Refresh(context.Background())
	first := f.Snapshot()
	_ = f.Refresh(context.Background())
	second := f.Snapshot()

	if *first.TodaySteps != *second.TodaySteps || *first.LatestHeartRate != *second.LatestHeartRate {
		t.Fatalf("refresh not idempotent: %v/%v vs %v/%v",
			*first.TodaySteps, *first.LatestHeartRate, *second.TodaySteps, *second.LatestHeartRate)
	}
	if second.Phase != models.PhaseReady {
		t.Fatalf("phase=%s", second.Phase)
	}
}

func TestFacade_PlatformGuard_NoProviderCall(t *testing.T) {
	p := &fakeProvider{}
	f, events := newTestFacade(p, SessionConfig{RequiredPlatform: "android", Platform: "ios"})

	_, err := f.Initialize(context.Background())
	if !errors.Is(err, healtherr.ErrPlatformUnsupported) {
		t.Fatalf("err=%v; want PlatformUnsupported", err)
	}
	if p.callCount() != 0 {
		t.Fatalf("provider called: %v", p.calls)
	}
	s := f.Snapshot()
	if s.Phase != models.PhaseErrored || s.IsInitialized || s.Error == nil {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if got := events.types(); !reflect.DeepEqual(got, []string{models.EventError}) {
		t.Fatalf("events=%v", got)
	}
}

func TestFacade_Initialize_FailureThenRetryFromScratch(t *testing.T) {
	p := &fakeProvider{initErr: healtherr.ErrSdkUnavailable}
	f, _ := newTestFacade(p, SessionConfig{})

	if _, err := f.Initialize(context.Background()); !errors.Is(err, healtherr.ErrSdkUnavailable) {
		t.Fatalf("err=%v", err)
	}
	s := f.Snapshot()
	if s.Phase != models.PhaseErrored || s.Error == nil || *s.Error != healtherr.ErrSdkUnavailable.Message {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	p.initErr = nil
	if _, err := f.Initialize(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	s = f.Snapshot()
	if s.Phase != models.PhaseConnected || s.Error != nil || s.HasPermissions {
		t.Fatalf("unexpected snapshot after retry: %+v", s)
	}
}

func TestFacade_Initialize_ResetsReadySession(t *testing.T) {
	p := &fakeProvider{steps: []models.StepSample{{Count: 1}}}
	f, _ := readyFacade(t, p)
	_ = f.Refresh(context.Background())

	if _, err := f.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s := f.Snapshot()
	if s.HasPermissions || s.TodaySteps != nil || len(s.GrantedTypes) != 0 || s.LastRefreshAt != nil {
		t.Fatalf("session not reset: %+v", s)
	}
}

func TestFacade_RequestPermissions_DeniedPreservesTypes(t *testing.T) {
	p := &fakeProvider{permErr: healtherr.PermissionDenied([]models.DataType{models.DataTypeHeartRate})}
	f, _ := newTestFacade(p, SessionConfig{})
	_, _ = f.Initialize(context.Background())

	_, err := f.RequestPermissions(context.Background(), stepsAndHR)
	if !errors.Is(err, healtherr.ErrPermissionDenied) {
		t.Fatalf("err=%v", err)
	}
	s := f.Snapshot()
	if s.Phase != models.PhaseErrored || s.HasPermissions || !s.IsInitialized {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if !reflect.DeepEqual(s.DeniedTypes, []models.DataType{models.DataTypeHeartRate}) {
		t.Fatalf("denied=%v", s.DeniedTypes)
	}

	// connection survives a refused grant, so the request can be retried
	p.permErr = nil
	if _, err := f.RequestPermissions(context.Background(), stepsAndHR); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s := f.Snapshot(); s.Phase != models.PhaseReady || len(s.DeniedTypes) != 0 {
		t.Fatalf("unexpected snapshot after retry: %+v", s)
	}
}

func TestFacade_AutoRefreshOnGrant(t *testing.T) {
	p := &fakeProvider{steps: []models.StepSample{{Count: 42}}}
	f, _ := newTestFacade(p, SessionConfig{AutoRefresh: true})
	_, _ = f.Initialize(context.Background())

	if _, err := f.RequestPermissions(context.Background(), stepsAndHR); err != nil {
		t.Fatalf("RequestPermissions: %v", err)
	}
	if s := f.Snapshot(); s.TodaySteps == nil || *s.TodaySteps != 42 {
		t.Fatalf("auto refresh did not run: %+v", s)
	}
}

func TestFacade_ConcurrentInitializeRejected(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	f, _ := newTestFacade(p, SessionConfig{})

	done := make(chan error, 1)
	go func() {
		_, err := f.Initialize(context.Background())
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for p.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("first Initialize never reached the provider")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := f.Initialize(context.Background()); !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("second Initialize err=%v; want ErrOperationInProgress", err)
	}
	if _, err := f.RequestPermissions(context.Background(), stepsAndHR); !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("RequestPermissions err=%v; want ErrOperationInProgress", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := f.Refresh(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("queued Refresh err=%v; want deadline exceeded", err)
	}

	close(p.block)
	if err := <-done; err != nil {
		t.Fatalf("first Initialize: %v", err)
	}
	if p.callCount() != 1 {
		t.Fatalf("provider calls=%v", p.calls)
	}
}

func TestFacade_Subscribe(t *testing.T) {
	f, _ := newTestFacade(&fakeProvider{}, SessionConfig{})

	var (
		mu     sync.Mutex
		phases []models.Phase
	)
	unsubscribe := f.Subscribe(func(s models.SessionSnapshot) {
		mu.Lock()
		phases = append(phases, s.Phase)
		mu.Unlock()
	})

	_, _ = f.Initialize(context.Background())
	unsubscribe()
	unsubscribe() // safe to call twice
	_, _ = f.RequestPermissions(context.Background(), stepsAndHR)

	mu.Lock()
	defer mu.Unlock()
	want := []models.Phase{models.PhaseConnecting, models.PhaseConnected}
	if !reflect.DeepEqual(phases, want) {
		t.Fatalf("phases=%v; want %v", phases, want)
	}
}

func TestFacade_SnapshotIsACopy(t *testing.T) {
	f, _ := readyFacade(t, &fakeProvider{steps: []models.StepSample{{Count: 7}}})
	_ = f.Refresh(context.Background())

	s := f.Snapshot()
	*s.TodaySteps = 999
	s.GrantedTypes[0] = models.DataTypeWeight

	again := f.Snapshot()
	if *again.TodaySteps != 7 || again.GrantedTypes[0] != models.DataTypeSteps {
		t.Fatalf("snapshot aliases internal state: %+v", again)
	}
}

func TestFacade_EventsCarryNoReadings(t *testing.T) {
	p := &fakeProvider{
		steps: []models.StepSample{{Count: 12345}},
		hr:    []models.HeartRateSample{{HeartRate: 77, Timestamp: 1}},
	}
	f, events := readyFacade(t, p)
	_ = f.Refresh(context.Background())

	for _, e := range events.appends {
		meta, _ := e.Metadata.(map[string]any)
		for k, v := range meta {
			if v == int64(12345) || v == 77.0 {
				t.Fatalf("event %s leaks reading under %q", e.Type, k)
			}
		}
	}
}
