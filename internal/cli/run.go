package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arcceus/phonecall-popup/internal/config"
	"github.com/arcceus/phonecall-popup/internal/models"
	"github.com/arcceus/phonecall-popup/internal/notify"
	"github.com/arcceus/phonecall-popup/internal/popup"
	"github.com/arcceus/phonecall-popup/internal/registry"
	"github.com/arcceus/phonecall-popup/internal/telephony"
	"github.com/arcceus/phonecall-popup/internal/tray"
)

// runApp wires the bus client, registry, popup windows, tray, and
// notification pieces together and blocks in the UI event loop until
// quit or interrupt. A failed bus connection or subscription is fatal
// and surfaces as a nonzero exit.
func runApp() error {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	client, err := telephony.Dial(settings.Bus)
	if err != nil {
		return err
	}
	defer client.Close()

	// The popup callbacks close over reg, which doesn't exist until the
	// presenter does. Buttons can't be clicked before windows exist, so
	// the late assignment is safe.
	var reg *registry.Registry
	presenter := popup.New(
		func(callID string) { reg.Answer(callID) },
		func(callID string) { reg.Hangup(callID) },
	)

	reg = registry.New(presenter, client, registry.NewTickerScheduler())
	reg.SetTickInterval(time.Duration(settings.TickSeconds) * time.Second)

	notifier := notify.New(settings.Notifications.Enabled)
	reg.SetNotifier(notifier)
	reg.SetOnChange(func() { tray.UpdateCalls(reg.Snapshot()) })

	log.Info().Str("bus", settings.Bus.Name).Str("path", settings.Bus.ManagerPath).
		Msg("subscribing to telephony signals")
	if err := client.Subscribe(); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	go dispatch(reg, client.Events())

	// Pick up settings edits without a restart.
	watcher, err := config.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("settings watcher unavailable")
	} else if err := watcher.Start(); err != nil {
		log.Warn().Err(err).Msg("settings watcher failed to start")
	} else {
		defer watcher.Stop()
		go reloadSettings(watcher, reg, notifier)
	}

	// Quit the UI loop on SIGINT/SIGTERM so interrupt exits cleanly.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("shutting down")
		presenter.Quit()
	}()

	// The tray loop runs off the main goroutine; the Linux tray backends
	// don't need main, which the Fyne loop below occupies.
	go tray.Run(&appState{reg: reg, presenter: presenter},
		func() { tray.UpdateCalls(reg.Snapshot()) }, nil)

	log.Info().Msg("ready for calls")
	presenter.Run()

	reg.Shutdown()
	tray.Quit()
	fmt.Println("Call popup stopped")
	return nil
}

// dispatch routes normalized bus events to the registry handlers,
// strictly in delivery order.
func dispatch(reg *registry.Registry, events <-chan telephony.Event) {
	for event := range events {
		switch event.Type {
		case telephony.EventCallAdded:
			reg.HandleAppeared(event.Path, event.CallerID, event.State)
		case telephony.EventCallRemoved:
			reg.HandleRemoved(event.Path)
		case telephony.EventCallStateChanged:
			reg.HandleStateChanged(event.Path, event.State)
		}
	}
	log.Warn().Msg("bus event stream closed")
}

// reloadSettings applies settings file edits to the running app.
func reloadSettings(watcher *config.Watcher, reg *registry.Registry, notifier *notify.Notifier) {
	for range watcher.Events() {
		settings, err := config.LoadSettings()
		if err != nil {
			log.Warn().Err(err).Msg("settings reload failed")
			continue
		}
		reg.SetTickInterval(time.Duration(settings.TickSeconds) * time.Second)
		notifier.SetEnabled(settings.Notifications.Enabled)
		log.Info().Msg("settings reloaded")
	}
}

// appState adapts the registry and presenter to the tray's view of the app.
type appState struct {
	reg       *registry.Registry
	presenter *popup.Presenter
}

func (s *appState) Calls() []models.Call { return s.reg.Snapshot() }
func (s *appState) Answer(callID string) { s.reg.Answer(callID) }
func (s *appState) Hangup(callID string) { s.reg.Hangup(callID) }
func (s *appState) RequestShutdown()     { s.presenter.Quit() }
