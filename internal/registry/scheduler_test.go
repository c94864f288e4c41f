package registry

import (
	"testing"
	"time"
)

func TestTickerSchedulerStopsOnFalse(t *testing.T) {
	sched := NewTickerScheduler()
	done := make(chan struct{})
	ticks := 0

	sched.StartRepeating(time.Millisecond, func() bool {
		ticks++
		if ticks == 3 {
			close(done)
			return false
		}
		return true
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback never reached third tick")
	}

	// Give a cancelled repeat a chance to misfire.
	time.Sleep(20 * time.Millisecond)
	if ticks != 3 {
		t.Errorf("ticks = %d after self-cancel, want 3", ticks)
	}
}

func TestTickerSchedulerStop(t *testing.T) {
	sched := NewTickerScheduler()
	tickCh := make(chan struct{}, 64)

	handle := sched.StartRepeating(time.Millisecond, func() bool {
		tickCh <- struct{}{}
		return true
	})

	select {
	case <-tickCh:
	case <-time.After(time.Second):
		t.Fatal("timer never ticked")
	}

	handle.Stop()
	handle.Stop() // double cancel is a no-op

	// Drain anything in flight, then verify silence.
	time.Sleep(10 * time.Millisecond)
	for len(tickCh) > 0 {
		<-tickCh
	}
	select {
	case <-tickCh:
		t.Error("timer ticked after Stop")
	case <-time.After(20 * time.Millisecond):
	}
}
