package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"whisper-transcriber/internal/domain"
)

// ErrInvalidTransition is returned for edges outside the state machine.
var ErrInvalidTransition = errors.New("invalid model state transition")

// Tracker holds the model handle state and the size it refers to.
type Tracker struct {
	mu      sync.RWMutex
	state   domain.ModelState
	size    domain.ModelSize
	lastErr string
}

// NewTracker creates a tracker in unloaded state.
func NewTracker() *Tracker {
	return &Tracker{state: domain.ModelStateUnloaded}
}

// Transition validates and applies a state change for size.
func (t *Tracker) Transition(to domain.ModelState, size domain.ModelSize) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if to == t.state && size == t.size {
		return nil
	}
	if !isValidTransition(t.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.state, to)
	}

	t.state = to
	t.size = size
	if to != domain.ModelStateError {
		t.lastErr = ""
	}
	return nil
}

// Fail moves a loading model to error state and records the reason.
func (t *Tracker) Fail(size domain.ModelSize, reason string) error {
	if err := t.Transition(domain.ModelStateError, size); err != nil {
		return err
	}
	t.mu.Lock()
	t.lastErr = reason
	t.mu.Unlock()
	return nil
}

// Invalidate drops any loaded or failed handle back to unloaded.
// It is a no-op while unloaded or loading.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == domain.ModelStateLoaded || t.state == domain.ModelStateError {
		t.state = domain.ModelStateUnloaded
		t.size = ""
		t.lastErr = ""
	}
}

// State returns the current state.
func (t *Tracker) State() domain.ModelState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Size returns the size the current state refers to.
func (t *Tracker) Size() domain.ModelSize {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// LastError returns the reason recorded by Fail.
func (t *Tracker) LastError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// isValidTransition enforces the allowed model state machine edges.
func isValidTransition(from, to domain.ModelState) bool {
	switch from {
	case domain.ModelStateUnloaded:
		return to == domain.ModelStateLoading
	case domain.ModelStateLoading:
		return to == domain.ModelStateLoaded || to == domain.ModelStateError
	case domain.ModelStateLoaded:
		return to == domain.ModelStateUnloaded || to == domain.ModelStateLoading
	case domain.ModelStateError:
		return to == domain.ModelStateLoading || to == domain.ModelStateUnloaded
	default:
		return false
	}
}
