// Package registry tracks call lifecycle state from bus notifications.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arcceus/phonecall-popup/internal/models"
)

// Surface is one call's popup window.
type Surface interface {
	ShowIncoming(callerID string)
	ShowActive()
	UpdateTimer(elapsed string)
	Present()
	Destroy()
}

// Presenter creates one surface per call.
type Presenter interface {
	NewSurface(callID, callerID string) Surface
}

// CallActions invokes remote methods on a call's backend object.
type CallActions interface {
	Answer(path string) error
	Hangup(path string) error
}

// Notifier announces a newly ringing call outside the popup window.
type Notifier interface {
	Incoming(callerID string)
}

// call is one tracked call plus its owned resources.
type call struct {
	models.Call
	surface Surface
	timer   TimerHandle // non-nil iff state is active
}

// Registry maps call object paths to call state. Bus notifications drive
// all state changes; Answer/Hangup only forward to the backend, which is
// the sole source of truth. A call exists here from its first appeared
// notification until removal or disconnect, and ended calls are dropped
// immediately rather than retained.
type Registry struct {
	presenter Presenter
	actions   CallActions
	sched     Scheduler
	now       func() time.Time

	mu       sync.Mutex
	calls    map[string]*call
	tick     time.Duration
	notifier Notifier
	onChange func()
}

// New creates an empty registry with a 1-second tick interval.
func New(presenter Presenter, actions CallActions, sched Scheduler) *Registry {
	return &Registry{
		presenter: presenter,
		actions:   actions,
		sched:     sched,
		now:       time.Now,
		calls:     make(map[string]*call),
		tick:      time.Second,
	}
}

// SetNotifier sets the incoming-call notifier. May be nil.
func (r *Registry) SetNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifier = n
}

// SetOnChange sets a hook invoked after the set of tracked calls changed.
// The hook runs outside the registry lock.
func (r *Registry) SetOnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// SetTickInterval changes the duration refresh interval for calls that go
// active from now on. Running timers keep their interval.
func (r *Registry) SetTickInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tick = d
}

// HandleAppeared processes an object-appeared notification. Reappearance
// of a tracked call only re-presents its surface; calls first seen in any
// state other than incoming are ignored (joining a call already in
// progress is not handled by the telephony service either).
func (r *Registry) HandleAppeared(id, callerID, reportedState string) {
	r.mu.Lock()

	if existing, ok := r.calls[id]; ok {
		surface := existing.surface
		r.mu.Unlock()
		surface.Present()
		return
	}

	if reportedState != models.BusStateIncoming {
		r.mu.Unlock()
		log.Debug().Str("call", id).Str("state", reportedState).
			Msg("ignoring call in non-incoming initial state")
		return
	}

	c := &call{Call: *models.NewCall(id, callerID)}
	c.surface = r.presenter.NewSurface(id, c.CallerID)
	c.surface.ShowIncoming(c.CallerID)
	r.calls[id] = c

	notifier := r.notifier
	name := c.CallerID
	r.mu.Unlock()

	log.Info().Str("call", id).Str("caller", name).Msg("incoming call")
	if notifier != nil {
		notifier.Incoming(name)
	}
	r.changed()
}

// HandleRemoved processes an object-removed notification. Unknown calls
// are a no-op.
func (r *Registry) HandleRemoved(id string) {
	r.mu.Lock()
	removed := r.removeLocked(id)
	r.mu.Unlock()

	if removed {
		log.Info().Str("call", id).Msg("call removed")
		r.changed()
	}
}

// HandleStateChanged processes a property-changed notification carrying a
// new call state. Unknown calls and unrecognized states are no-ops.
func (r *Registry) HandleStateChanged(id, newState string) {
	r.mu.Lock()

	c, ok := r.calls[id]
	if !ok {
		r.mu.Unlock()
		return
	}

	switch newState {
	case models.BusStateActive:
		r.markActiveLocked(c)
		r.mu.Unlock()
		log.Info().Str("call", id).Msg("call active")
		r.changed()
	case models.BusStateDisconnected:
		r.removeLocked(id)
		r.mu.Unlock()
		log.Info().Str("call", id).Msg("call disconnected")
		r.changed()
	default:
		r.mu.Unlock()
	}
}

// markActiveLocked transitions a call into the active state, records the
// start time, and starts its duration tick. A pre-existing timer is
// cancelled first so duplicate active transitions never leave two timers
// running for one call.
func (r *Registry) markActiveLocked(c *call) {
	c.Activate(r.now())
	c.surface.ShowActive()

	if c.timer != nil {
		c.timer.Stop()
	}
	id := c.ID
	c.timer = r.sched.StartRepeating(r.tick, func() bool {
		return r.handleTick(id)
	})
	c.surface.UpdateTimer(FormatElapsed(0))
}

// handleTick refreshes one call's duration display. It reports false,
// stopping its own repeat, once the call is gone or no longer active.
func (r *Registry) handleTick(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.calls[id]
	if !ok || c.State != models.CallStateActive {
		return false
	}
	c.surface.UpdateTimer(FormatElapsed(c.Elapsed(r.now())))
	return true
}

// removeLocked cancels the call's timer, destroys its surface, and drops
// the entry. Returns false if the call was not tracked.
func (r *Registry) removeLocked(id string) bool {
	c, ok := r.calls[id]
	if !ok {
		return false
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.State = models.CallStateEnded
	c.surface.Destroy()
	delete(r.calls, id)
	return true
}

// Answer asks the backend to answer the call. Failures are logged and
// swallowed; local state changes only when the bus reports them.
func (r *Registry) Answer(id string) {
	log.Info().Str("call", id).Msg("answering")
	if err := r.actions.Answer(id); err != nil {
		log.Warn().Err(err).Str("call", id).Msg("answer failed")
	}
}

// Hangup asks the backend to hang up the call. Failures are logged and
// swallowed. The window-close path routes here, so closing a popup can
// never desynchronize UI from backend state.
func (r *Registry) Hangup(id string) {
	log.Info().Str("call", id).Msg("hanging up")
	if err := r.actions.Hangup(id); err != nil {
		log.Warn().Err(err).Str("call", id).Msg("hangup failed")
	}
}

// Snapshot returns the tracked calls ordered by object path.
func (r *Registry) Snapshot() []models.Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]models.Call, 0, len(r.calls))
	for _, c := range r.calls {
		calls = append(calls, c.Call)
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].ID < calls[j].ID
	})
	return calls
}

// Len returns the number of tracked calls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Shutdown cancels all timers and destroys all surfaces.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.calls))
	for id := range r.calls {
		ids = append(ids, id)
	}
	for _, id := range ids {
		r.removeLocked(id)
	}
	r.mu.Unlock()
	r.changed()
}

func (r *Registry) changed() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// FormatElapsed renders a call duration as mm:ss. Durations of an hour or
// more keep counting minutes past 59.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
