package popup

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Window is the popup surface for a single call. All methods may be
// called from any goroutine; UI mutations are marshalled onto the Fyne
// event goroutine.
type Window struct {
	win         fyne.Window
	stateLabel  *widget.Label
	callerLabel *widget.Label
	timerLabel  *widget.Label
	answerBtn   *widget.Button
	hangupBtn   *widget.Button

	destroyOnce sync.Once
}

// newWindow builds the window. Must run on the Fyne event goroutine.
func newWindow(a fyne.App, callerID string, onAnswer, onHangup func()) *Window {
	w := &Window{
		win:         a.NewWindow("Phone Call"),
		stateLabel:  widget.NewLabel("Incoming call"),
		callerLabel: widget.NewLabel("From: " + callerID),
		timerLabel:  widget.NewLabel("00:00"),
	}
	w.answerBtn = widget.NewButton("Answer", onAnswer)
	w.hangupBtn = widget.NewButton("Hang up", onHangup)

	w.win.SetContent(container.NewVBox(
		w.stateLabel,
		w.callerLabel,
		w.timerLabel,
		container.NewGridWithColumns(2, w.answerBtn, w.hangupBtn),
	))
	w.win.SetFixedSize(true)
	w.win.CenterOnScreen()

	// Closing the window must not silently drop the surface while the
	// backend still has the call; route it through the hangup path and
	// let the resulting bus notification destroy the window.
	w.win.SetCloseIntercept(onHangup)

	return w
}

// ShowIncoming puts the window in ringing mode and raises it.
func (w *Window) ShowIncoming(callerID string) {
	fyne.Do(func() {
		w.stateLabel.SetText("Incoming call")
		w.callerLabel.SetText("From: " + callerID)
		w.timerLabel.SetText("Ringing…")
		w.answerBtn.Enable()
		w.hangupBtn.Enable()
		w.win.Show()
		w.win.RequestFocus()
	})
}

// ShowActive switches to in-call mode; answering again makes no sense.
func (w *Window) ShowActive() {
	fyne.Do(func() {
		w.stateLabel.SetText("Call in progress")
		w.answerBtn.Disable()
		w.hangupBtn.Enable()
		w.win.Show()
		w.win.RequestFocus()
	})
}

// UpdateTimer sets the elapsed-time label.
func (w *Window) UpdateTimer(elapsed string) {
	fyne.Do(func() {
		w.timerLabel.SetText(elapsed)
	})
}

// Present raises the window.
func (w *Window) Present() {
	fyne.Do(func() {
		w.win.Show()
		w.win.RequestFocus()
	})
}

// Destroy closes the window. Safe to call more than once.
func (w *Window) Destroy() {
	w.destroyOnce.Do(func() {
		fyne.Do(func() {
			w.win.SetCloseIntercept(nil)
			w.win.Close()
		})
	})
}
