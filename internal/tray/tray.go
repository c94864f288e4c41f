package tray

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"

	"github.com/arcceus/phonecall-popup/internal/models"
)

const maxCallSlots = 4

var (
	state   AppState
	onStart func()
	onExit  func()

	// ready flips once onReady built the menu; systray registers on the
	// bus asynchronously, so calls can arrive before the items exist.
	ready atomic.Bool

	// Pre-allocated call menu slots
	callSlots   [maxCallSlots]*systray.MenuItem
	callAnswer  [maxCallSlots]*systray.MenuItem
	callHangup  [maxCallSlots]*systray.MenuItem
	noCallsItem *systray.MenuItem
	quitItem    *systray.MenuItem

	// Maps slot index → call ID for menu actions
	slotMu    sync.RWMutex
	slotCalls [maxCallSlots]string
)

// Run starts the system tray loop. This blocks the calling goroutine.
// onStartFn is called when the tray is ready, onExitFn when it exits.
func Run(s AppState, onStartFn, onExitFn func()) {
	state = s
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(formatTooltip(0))

	// Header
	header := systray.AddMenuItem("Call Popup", "")
	header.Disable()

	systray.AddSeparator()

	// Pre-allocate call slots (hidden by default)
	for i := 0; i < maxCallSlots; i++ {
		callSlots[i] = systray.AddMenuItem("", "")
		callAnswer[i] = callSlots[i].AddSubMenuItem("Answer", "")
		callHangup[i] = callSlots[i].AddSubMenuItem("Hang up", "")
		callSlots[i].Hide()
	}

	// "No calls" placeholder
	noCallsItem = systray.AddMenuItem("No calls", "")
	noCallsItem.Disable()

	systray.AddSeparator()

	quitItem = systray.AddMenuItem("Quit", "Close the call popup")

	// onStart re-syncs the menu, picking up any calls that appeared
	// while the tray was still registering.
	ready.Store(true)
	if onStart != nil {
		onStart()
	}

	go handleClicks()
}

func onQuit() {
	ready.Store(false)
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}

		// Call slot clicks
		case <-callAnswer[0].ClickedCh:
			answerSlot(0)
		case <-callHangup[0].ClickedCh:
			hangupSlot(0)
		case <-callAnswer[1].ClickedCh:
			answerSlot(1)
		case <-callHangup[1].ClickedCh:
			hangupSlot(1)
		case <-callAnswer[2].ClickedCh:
			answerSlot(2)
		case <-callHangup[2].ClickedCh:
			hangupSlot(2)
		case <-callAnswer[3].ClickedCh:
			answerSlot(3)
		case <-callHangup[3].ClickedCh:
			hangupSlot(3)
		}
	}
}

// answerSlot answers the call assigned to the given menu slot.
func answerSlot(slot int) {
	if id := slotCall(slot); id != "" && state != nil {
		go state.Answer(id)
	}
}

// hangupSlot hangs up the call assigned to the given menu slot.
func hangupSlot(slot int) {
	if id := slotCall(slot); id != "" && state != nil {
		go state.Hangup(id)
	}
}

func slotCall(slot int) string {
	slotMu.RLock()
	defer slotMu.RUnlock()
	return slotCalls[slot]
}

// UpdateCalls refreshes the call menu items and tooltip. Updates that
// arrive before the menu is built are dropped; onReady re-syncs.
func UpdateCalls(calls []models.Call) {
	if !ready.Load() {
		return
	}

	// Update slot → call ID mapping
	slotMu.Lock()
	for i := 0; i < maxCallSlots; i++ {
		slotCalls[i] = ""
	}
	for i, c := range calls {
		if i >= maxCallSlots {
			break
		}
		slotCalls[i] = c.ID
	}
	slotMu.Unlock()

	// Hide all slots first
	for i := 0; i < maxCallSlots; i++ {
		callSlots[i].Hide()
	}

	if len(calls) == 0 {
		noCallsItem.Show()
	} else {
		noCallsItem.Hide()
		for i, c := range calls {
			if i >= maxCallSlots {
				break
			}
			callSlots[i].SetTitle(formatCallTitle(c))
			if c.State == models.CallStateIncoming {
				callAnswer[i].Show()
			} else {
				callAnswer[i].Hide()
			}
			callSlots[i].Show()
		}
	}

	systray.SetTooltip(formatTooltip(len(calls)))
}

func formatTooltip(calls int) string {
	switch calls {
	case 0:
		return "Call Popup — idle"
	case 1:
		return "Call Popup — 1 call"
	default:
		return fmt.Sprintf("Call Popup — %d calls", calls)
	}
}

func formatCallTitle(c models.Call) string {
	switch c.State {
	case models.CallStateIncoming:
		return fmt.Sprintf("☎ %s — ringing", c.CallerID)
	case models.CallStateActive:
		return fmt.Sprintf("● %s — in call", c.CallerID)
	default:
		return fmt.Sprintf("● %s", c.CallerID)
	}
}
