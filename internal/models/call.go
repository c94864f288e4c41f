package models

import "time"

// CallState represents the lifecycle state of a tracked call.
type CallState string

const (
	// CallStateIncoming is a ringing call that has not been answered yet.
	CallStateIncoming CallState = "incoming"
	// CallStateActive is an answered call with a running duration timer.
	CallStateActive CallState = "active"
	// CallStateEnded is a call that has disconnected. Ended calls are
	// removed from the registry immediately and never displayed.
	CallStateEnded CallState = "ended"
)

// Bus-reported state strings as delivered by the telephony service.
// These are the raw values carried in the State property, not the
// registry's own states.
const (
	BusStateIncoming     = "incoming"
	BusStateActive       = "active"
	BusStateDisconnected = "disconnected"
)

// Call is a snapshot of one tracked call.
// The ID is the call's D-Bus object path and is stable for its lifetime.
type Call struct {
	ID        string
	CallerID  string
	State     CallState
	StartedAt time.Time // zero until the call goes active
}

// NewCall creates a call in the incoming state.
// An empty caller ID is replaced with "Unknown".
func NewCall(id, callerID string) *Call {
	if callerID == "" {
		callerID = "Unknown"
	}
	return &Call{
		ID:       id,
		CallerID: callerID,
		State:    CallStateIncoming,
	}
}

// Activate marks the call answered and records the start time.
func (c *Call) Activate(now time.Time) {
	c.State = CallStateActive
	c.StartedAt = now
}

// Elapsed returns the time since the call went active, floored at zero.
func (c *Call) Elapsed(now time.Time) time.Duration {
	d := now.Sub(c.StartedAt)
	if d < 0 {
		d = 0
	}
	return d
}
