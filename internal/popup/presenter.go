// Package popup renders one Fyne window per tracked call.
package popup

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/arcceus/phonecall-popup/internal/registry"
)

// Presenter owns the Fyne application and creates call windows.
// Window buttons route back through the provided callbacks; the popup
// itself never mutates call state.
type Presenter struct {
	app      fyne.App
	onAnswer func(callID string)
	onHangup func(callID string)
}

// New creates the presenter and the underlying Fyne application.
func New(onAnswer, onHangup func(callID string)) *Presenter {
	return &Presenter{
		app:      app.New(),
		onAnswer: onAnswer,
		onHangup: onHangup,
	}
}

// NewSurface creates a hidden window for the call. Must not be called
// from the Fyne event goroutine; the registry only calls it from the bus
// dispatch goroutine.
func (p *Presenter) NewSurface(callID, callerID string) registry.Surface {
	var w *Window
	fyne.DoAndWait(func() {
		w = newWindow(p.app, callerID,
			func() { p.onAnswer(callID) },
			func() { p.onHangup(callID) },
		)
	})
	return w
}

// Run enters the Fyne event loop. Blocks until Quit.
func (p *Presenter) Run() {
	p.app.Run()
}

// Quit stops the event loop. Safe to call from any goroutine.
func (p *Presenter) Quit() {
	fyne.Do(p.app.Quit)
}
