package service

import (
	"context"
	"errors"
	"time"

	"health_dashboard/internal/healtherr"
	"health_dashboard/internal/logger"
	"health_dashboard/internal/models"
)

// sessionRefresher is what RefresherService needs from the facade.
type sessionRefresher interface {
	Snapshot() models.SessionSnapshot
	Refresh(ctx context.Context) error
}

// RefresherService periodically refreshes a Ready session.
type RefresherService struct {
	session sessionRefresher
	log     *logger.Logger
}

// NewRefresherService returns a refresher bound to session.
func NewRefresherService(session sessionRefresher, log *logger.Logger) *RefresherService {
	if log == nil {
		log = logger.Nop()
	}
	return &RefresherService{session: session, log: log}
}

// Run ticks at the given interval until ctx is canceled. Ticks are skipped
// while the session is not Ready.
func (r *RefresherService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		return
	}
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.tick(ctx)
		}
	}
}

// tick performs one refresh attempt. It reports whether a refresh ran.
func (r *RefresherService) tick(ctx context.Context) bool {
	if r.session.Snapshot().Phase != models.PhaseReady {
		return false
	}
	err := r.session.Refresh(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, healtherr.ErrNotInitialized):
		// session reset between the phase check and the refresh
		r.log.Debugw("refresher_skipped", "error", err)
		return false
	default:
		r.log.Warnw("refresher_refresh_failed", "error", err)
		return true
	}
}
