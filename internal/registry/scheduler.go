package registry

import (
	"sync"
	"time"
)

// TickFunc is invoked on every repeat. Returning false stops the repeat.
type TickFunc func() bool

// TimerHandle cancels a repeating tick. Stop is safe to call more than
// once and safe to call after the tick stopped itself.
type TimerHandle interface {
	Stop()
}

// Scheduler starts cancellable repeating ticks. The registry uses one
// tick per active call to refresh its duration display.
type Scheduler interface {
	StartRepeating(interval time.Duration, fn TickFunc) TimerHandle
}

// NewTickerScheduler returns a Scheduler backed by time.Ticker.
func NewTickerScheduler() Scheduler {
	return tickerScheduler{}
}

type tickerScheduler struct{}

func (tickerScheduler) StartRepeating(interval time.Duration, fn TickFunc) TimerHandle {
	handle := &tickerHandle{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-handle.ticker.C:
				if !fn() {
					handle.Stop()
					return
				}
			case <-handle.done:
				return
			}
		}
	}()

	return handle
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() {
		h.ticker.Stop()
		close(h.done)
	})
}
