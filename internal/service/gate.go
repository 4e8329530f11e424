package service

import "context"

// opGate admits one session operation at a time.
type opGate chan struct{}

func newOpGate() opGate { return make(opGate, 1) }

// tryAcquire takes the slot without waiting.
func (g opGate) tryAcquire() bool {
	select {
	case g <- struct{}{}:
		return true
	default:
		return false
	}
}

// acquire waits for the slot or for ctx to end.
func (g opGate) acquire(ctx context.Context) error {
	select {
	case g <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g opGate) release() { <-g }
