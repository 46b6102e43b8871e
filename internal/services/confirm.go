package services

import (
	"errors"
	"sync"
)

// ErrNoPendingConfirmation is returned when Resolve is called with nothing
// pending.
var ErrNoPendingConfirmation = errors.New("no pending confirmation")

// PendingAction is a destructive operation waiting for the user's verdict.
type PendingAction struct {
	Message string
	action  func() error
}

// Confirmer models the two-step confirmation protocol: a destructive
// operation is first recorded with a message, then a later accept or cancel
// event runs or discards it. At most one action is pending at a time; a new
// request replaces the previous binding.
type Confirmer struct {
	mu      sync.Mutex
	pending *PendingAction
}

func NewConfirmer() *Confirmer {
	return &Confirmer{}
}

// Request records a pending action and returns it for display.
func (c *Confirmer) Request(message string, action func() error) *PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &PendingAction{Message: message, action: action}
	return c.pending
}

// Pending returns the currently pending action, or nil.
func (c *Confirmer) Pending() *PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Resolve settles the pending action: accepted runs it, cancel discards it.
// Either way the pending slot is cleared before the action executes, so the
// action itself may request a new confirmation.
func (c *Confirmer) Resolve(accepted bool) error {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if pending == nil {
		return ErrNoPendingConfirmation
	}
	if !accepted {
		return nil
	}
	return pending.action()
}
