package service

import (
	"context"
	"time"

	"health_dashboard/internal/logger"
	"health_dashboard/internal/models"
	"health_dashboard/internal/provider"
	"health_dashboard/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Session drives the health session state machine.
type Session interface {
	Initialize(ctx context.Context) (string, error)
	RequestPermissions(ctx context.Context, types models.DataTypeSet) (string, error)
	Refresh(ctx context.Context) error
	Snapshot() models.SessionSnapshot
	Subscribe(fn func(models.SessionSnapshot)) (unsubscribe func())
}

// Metrics exposes the derived health queries.
type Metrics interface {
	TodaySteps(ctx context.Context) (int64, error)
	LatestHeartRate(ctx context.Context) (*float64, error)
}

// EventLog exposes the append-only session audit log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error)
}

// Refresher runs the periodic background refresh.
// Stop via context cancellation in main() for graceful shutdown.
type Refresher interface {
	Run(ctx context.Context, tick time.Duration)
}

// Service aggregates all sub-services.
type Service struct {
	Session
	Metrics
	EventLog
	Refresher
	Authorization
}

// Deps are the collaborators NewService wires together.
type Deps struct {
	Repos    *repository.Repository
	Provider provider.Provider
	Session  SessionConfig
	Auth     AuthConfig
	Log      *logger.Logger
}

// NewService wires the repository layer and the provider into concrete services.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	facade := NewHealthFacade(d.Provider, d.Repos.EventRepo, d.Session, log.Named("session"))
	return &Service{
		Session:       facade,
		Metrics:       facade,
		EventLog:      NewEventLogService(d.Repos.EventRepo),
		Refresher:     NewRefresherService(facade, log.Named("refresher")),
		Authorization: NewAuthService(d.Repos.Auth, d.Auth),
	}
}
