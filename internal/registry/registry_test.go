package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/arcceus/phonecall-popup/internal/models"
)

// fakeSurface records presentation calls for one call window.
type fakeSurface struct {
	incoming  []string
	active    int
	presented int
	destroyed int
	timer     []string
}

func (s *fakeSurface) ShowIncoming(callerID string) { s.incoming = append(s.incoming, callerID) }
func (s *fakeSurface) ShowActive()                  { s.active++ }
func (s *fakeSurface) UpdateTimer(elapsed string)   { s.timer = append(s.timer, elapsed) }
func (s *fakeSurface) Present()                     { s.presented++ }
func (s *fakeSurface) Destroy()                     { s.destroyed++ }

type fakePresenter struct {
	surfaces map[string]*fakeSurface
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{surfaces: make(map[string]*fakeSurface)}
}

func (p *fakePresenter) NewSurface(callID, callerID string) Surface {
	s := &fakeSurface{}
	p.surfaces[callID] = s
	return s
}

// fakeTimer is a manually fired repeating tick.
type fakeTimer struct {
	fn      TickFunc
	stopped bool
}

func (t *fakeTimer) Stop() { t.stopped = true }

// fire runs the callback the way the real scheduler would, stopping the
// timer when the callback reports false.
func (t *fakeTimer) fire() bool {
	if t.stopped {
		return false
	}
	if !t.fn() {
		t.Stop()
		return false
	}
	return true
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) StartRepeating(interval time.Duration, fn TickFunc) TimerHandle {
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) running() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakeActions struct {
	answered []string
	hungUp   []string
	err      error
}

func (a *fakeActions) Answer(path string) error {
	a.answered = append(a.answered, path)
	return a.err
}

func (a *fakeActions) Hangup(path string) error {
	a.hungUp = append(a.hungUp, path)
	return a.err
}

// testClock is a settable clock for driving elapsed-time checks.
type testClock struct {
	now time.Time
}

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRegistry() (*Registry, *fakePresenter, *fakeScheduler, *fakeActions, *testClock) {
	presenter := newFakePresenter()
	sched := &fakeScheduler{}
	actions := &fakeActions{}
	clock := &testClock{now: time.Unix(1000, 0)}

	reg := New(presenter, actions, sched)
	reg.now = func() time.Time { return clock.now }
	return reg, presenter, sched, actions, clock
}

func TestUntrackedCallsAreNoOps(t *testing.T) {
	reg, presenter, sched, _, _ := newTestRegistry()

	reg.HandleStateChanged("/c1", "active")
	reg.HandleRemoved("/c1")
	reg.HandleStateChanged("/c1", "disconnected")

	if reg.Len() != 0 {
		t.Errorf("registry has %d calls, want 0", reg.Len())
	}
	if len(presenter.surfaces) != 0 {
		t.Errorf("created %d surfaces, want 0", len(presenter.surfaces))
	}
	if len(sched.timers) != 0 {
		t.Errorf("started %d timers, want 0", len(sched.timers))
	}
}

func TestHandleAppeared(t *testing.T) {
	tests := []struct {
		name          string
		callerID      string
		reportedState string
		wantTracked   bool
		wantCaller    string
	}{
		{
			name:          "incoming call is tracked",
			callerID:      "Alice",
			reportedState: "incoming",
			wantTracked:   true,
			wantCaller:    "Alice",
		},
		{
			name:          "missing caller ID defaults to Unknown",
			callerID:      "",
			reportedState: "incoming",
			wantTracked:   true,
			wantCaller:    "Unknown",
		},
		{
			name:          "mid-call join is ignored",
			callerID:      "Bob",
			reportedState: "active",
			wantTracked:   false,
		},
		{
			name:          "unknown initial state is ignored",
			callerID:      "Carol",
			reportedState: "held",
			wantTracked:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, presenter, _, _, _ := newTestRegistry()
			reg.HandleAppeared("/c1", tt.callerID, tt.reportedState)

			if got := reg.Len() == 1; got != tt.wantTracked {
				t.Fatalf("tracked = %v, want %v", got, tt.wantTracked)
			}
			if !tt.wantTracked {
				return
			}

			calls := reg.Snapshot()
			if calls[0].State != models.CallStateIncoming {
				t.Errorf("state = %s, want incoming", calls[0].State)
			}
			if calls[0].CallerID != tt.wantCaller {
				t.Errorf("caller = %q, want %q", calls[0].CallerID, tt.wantCaller)
			}
			surface := presenter.surfaces["/c1"]
			if len(surface.incoming) != 1 || surface.incoming[0] != tt.wantCaller {
				t.Errorf("ShowIncoming calls = %v, want [%q]", surface.incoming, tt.wantCaller)
			}
		})
	}
}

func TestAppearedIsIdempotent(t *testing.T) {
	reg, presenter, _, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleAppeared("/c1", "Alice", "incoming")

	if reg.Len() != 1 {
		t.Errorf("registry has %d calls, want 1", reg.Len())
	}
	if len(presenter.surfaces) != 1 {
		t.Errorf("created %d surfaces, want 1", len(presenter.surfaces))
	}
	if got := presenter.surfaces["/c1"].presented; got != 1 {
		t.Errorf("surface presented %d times, want 1", got)
	}
}

func TestActivation(t *testing.T) {
	reg, presenter, sched, _, clock := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "active")

	calls := reg.Snapshot()
	if calls[0].State != models.CallStateActive {
		t.Fatalf("state = %s, want active", calls[0].State)
	}
	if !calls[0].StartedAt.Equal(clock.now) {
		t.Errorf("StartedAt = %v, want %v", calls[0].StartedAt, clock.now)
	}

	surface := presenter.surfaces["/c1"]
	if surface.active != 1 {
		t.Errorf("ShowActive calls = %d, want 1", surface.active)
	}
	if len(surface.timer) != 1 || surface.timer[0] != "00:00" {
		t.Errorf("initial timer render = %v, want [00:00]", surface.timer)
	}
	if sched.running() != 1 {
		t.Errorf("running timers = %d, want 1", sched.running())
	}
}

func TestDuplicateActivationKeepsOneTimer(t *testing.T) {
	reg, _, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "active")
	reg.HandleStateChanged("/c1", "active")

	if len(sched.timers) != 2 {
		t.Fatalf("started %d timers total, want 2", len(sched.timers))
	}
	if sched.running() != 1 {
		t.Errorf("running timers = %d, want exactly 1", sched.running())
	}
	if !sched.timers[0].stopped {
		t.Error("first timer still running after re-activation")
	}
}

func TestTickRendersElapsed(t *testing.T) {
	reg, presenter, sched, _, clock := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "active")

	clock.advance(65 * time.Second)
	if !sched.timers[0].fire() {
		t.Fatal("tick requested cancellation while call is active")
	}

	surface := presenter.surfaces["/c1"]
	if got := surface.timer[len(surface.timer)-1]; got != "01:05" {
		t.Errorf("timer render = %q, want 01:05", got)
	}
}

func TestTickSelfCancelsAfterRemoval(t *testing.T) {
	reg, _, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "active")
	timer := sched.timers[0]

	reg.HandleRemoved("/c1")

	// Removal already cancelled the timer; a tick that was in flight at
	// that moment must also report its own cancellation.
	if !timer.stopped {
		t.Error("timer not cancelled on removal")
	}
	timer.stopped = false
	if timer.fire() {
		t.Error("tick kept running for a removed call")
	}
}

func TestDisconnectCleansUp(t *testing.T) {
	reg, presenter, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "active")
	reg.HandleStateChanged("/c1", "disconnected")

	if reg.Len() != 0 {
		t.Errorf("registry has %d calls after disconnect, want 0", reg.Len())
	}
	if sched.running() != 0 {
		t.Errorf("running timers = %d, want 0", sched.running())
	}
	if presenter.surfaces["/c1"].destroyed != 1 {
		t.Errorf("surface destroyed %d times, want 1", presenter.surfaces["/c1"].destroyed)
	}
}

func TestEarlyDisconnectBeforeAnswer(t *testing.T) {
	reg, presenter, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleRemoved("/c1")

	if reg.Len() != 0 {
		t.Errorf("registry has %d calls, want 0", reg.Len())
	}
	if len(sched.timers) != 0 {
		t.Errorf("started %d timers for a never-answered call, want 0", len(sched.timers))
	}
	if presenter.surfaces["/c1"].destroyed != 1 {
		t.Errorf("surface destroyed %d times, want 1", presenter.surfaces["/c1"].destroyed)
	}

	// A second removal for the same path is a no-op.
	reg.HandleRemoved("/c1")
	if presenter.surfaces["/c1"].destroyed != 1 {
		t.Error("second removal destroyed the surface again")
	}
}

func TestUnrecognizedStateChangeIsIgnored(t *testing.T) {
	reg, _, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleStateChanged("/c1", "")
	reg.HandleStateChanged("/c1", "held")

	if reg.Len() != 1 {
		t.Errorf("registry has %d calls, want 1", reg.Len())
	}
	if calls := reg.Snapshot(); calls[0].State != models.CallStateIncoming {
		t.Errorf("state = %s, want incoming", calls[0].State)
	}
	if len(sched.timers) != 0 {
		t.Errorf("started %d timers, want 0", len(sched.timers))
	}
}

func TestAnswerHangupForwardToBackend(t *testing.T) {
	reg, _, _, actions, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.Answer("/c1")
	reg.Hangup("/c1")

	if len(actions.answered) != 1 || actions.answered[0] != "/c1" {
		t.Errorf("answered = %v, want [/c1]", actions.answered)
	}
	if len(actions.hungUp) != 1 || actions.hungUp[0] != "/c1" {
		t.Errorf("hung up = %v, want [/c1]", actions.hungUp)
	}
}

func TestRemoteActionFailureDoesNotMutateState(t *testing.T) {
	reg, _, _, actions, _ := newTestRegistry()
	actions.err = errors.New("backend gone")

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.Answer("/c1")
	reg.Hangup("/c1")

	if reg.Len() != 1 {
		t.Errorf("registry has %d calls, want 1", reg.Len())
	}
	if calls := reg.Snapshot(); calls[0].State != models.CallStateIncoming {
		t.Errorf("state = %s, want incoming", calls[0].State)
	}
}

type fakeNotifier struct {
	callers []string
}

func (n *fakeNotifier) Incoming(callerID string) { n.callers = append(n.callers, callerID) }

func TestNotifierFiresOncePerCall(t *testing.T) {
	reg, _, _, _, _ := newTestRegistry()
	notifier := &fakeNotifier{}
	reg.SetNotifier(notifier)

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleAppeared("/c1", "Alice", "incoming") // re-present, no new notification

	if len(notifier.callers) != 1 || notifier.callers[0] != "Alice" {
		t.Errorf("notifications = %v, want [Alice]", notifier.callers)
	}
}

func TestOnChangeFires(t *testing.T) {
	reg, _, _, _, _ := newTestRegistry()
	changes := 0
	reg.SetOnChange(func() { changes++ })

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleRemoved("/c1")
	reg.HandleRemoved("/c1") // untracked, no change

	if changes != 2 {
		t.Errorf("onChange fired %d times, want 2", changes)
	}
}

func TestShutdownDestroysEverything(t *testing.T) {
	reg, presenter, sched, _, _ := newTestRegistry()

	reg.HandleAppeared("/c1", "Alice", "incoming")
	reg.HandleAppeared("/c2", "Bob", "incoming")
	reg.HandleStateChanged("/c2", "active")

	reg.Shutdown()

	if reg.Len() != 0 {
		t.Errorf("registry has %d calls after shutdown, want 0", reg.Len())
	}
	if sched.running() != 0 {
		t.Errorf("running timers = %d, want 0", sched.running())
	}
	for id, surface := range presenter.surfaces {
		if surface.destroyed != 1 {
			t.Errorf("surface %s destroyed %d times, want 1", id, surface.destroyed)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{name: "zero", d: 0, expected: "00:00"},
		{name: "seconds only", d: 42 * time.Second, expected: "00:42"},
		{name: "minute boundary", d: 60 * time.Second, expected: "01:00"},
		{name: "minutes and seconds", d: 65 * time.Second, expected: "01:05"},
		{name: "negative floors to zero", d: -5 * time.Second, expected: "00:00"},
		{name: "over an hour", d: 61 * time.Minute, expected: "61:00"},
		{name: "sub-second truncates", d: 1500 * time.Millisecond, expected: "00:01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatElapsed(tt.d); got != tt.expected {
				t.Errorf("FormatElapsed(%v) = %q, want %q", tt.d, got, tt.expected)
			}
		})
	}
}
