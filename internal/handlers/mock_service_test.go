package handlers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"health_dashboard/internal/models"
	"health_dashboard/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// tokenAuth accepts exactly one token. It keeps no per-call state, so it is
// safe to share with a server goroutine.
type tokenAuth struct {
	mockAuth
	want string
	id   int
}

func (a *tokenAuth) ParseToken(token string) (int, error) {
	if token != a.want {
		return 0, errors.New("unknown token")
	}
	return a.id, nil
}

type mockSession struct {
	mu       sync.Mutex
	snapshot models.SessionSnapshot

	initMsg    string
	initErr    error
	permMsg    string
	permErr    error
	refreshErr error

	initCalls     int
	permCalls     int
	refreshCalls  int
	snapshotCalls int
	lastTypes    models.DataTypeSet

	listener func(models.SessionSnapshot)
}

func (m *mockSession) Initialize(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initCalls++
	return m.initMsg, m.initErr
}
func (m *mockSession) RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permCalls++
	m.lastTypes = types
	return m.permMsg, m.permErr
}
func (m *mockSession) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	return m.refreshErr
}
func (m *mockSession) Snapshot() models.SessionSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotCalls++
	return m.snapshot
}
func (m *mockSession) Subscribe(fn func(models.SessionSnapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listener = nil
	}
}

// publish replaces the snapshot and notifies the subscriber, if any.
func (m *mockSession) publish(s models.SessionSnapshot) bool {
	m.mu.Lock()
	m.snapshot = s
	fn := m.listener
	m.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(s)
	return true
}

type mockMetrics struct {
	steps    int64
	stepsErr error
	bpm      *float64
	bpmErr   error
	calls    int
}

func (m *mockMetrics) TodaySteps(ctx context.Context) (int64, error) {
	m.calls++
	return m.steps, m.stepsErr
}
func (m *mockMetrics) LatestHeartRate(ctx context.Context) (*float64, error) {
	m.calls++
	return m.bpm, m.bpmErr
}

type mockEventLog struct {
	resp     []models.SessionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
	calls    int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
