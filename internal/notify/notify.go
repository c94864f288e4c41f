// Package notify sends desktop notifications for incoming calls.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"
)

// Notifier raises a desktop notification when a call starts ringing.
// It can be toggled at runtime from the settings file.
type Notifier struct {
	enabled atomic.Bool
}

// New creates a notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled toggles notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Incoming announces a ringing call. Delivery failure is logged and
// swallowed; the popup window is the primary surface either way.
func (n *Notifier) Incoming(callerID string) {
	if !n.enabled.Load() {
		return
	}
	if err := beeep.Notify("Incoming call", "From: "+callerID, ""); err != nil {
		log.Warn().Err(err).Msg("desktop notification failed")
	}
}
