package scheduler

import (
	"sync"
	"time"
)

// Ticker delivers wake-ups to a Task.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

// NewTimeTicker wraps time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// ManualTicker fires only when Tick is called.
type ManualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

func (m *ManualTicker) Stop() {
	m.once.Do(func() { close(m.stopped) })
}

// Tick hands one wake-up to the receiving task. It returns false once the
// ticker has been stopped.
func (m *ManualTicker) Tick() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// Task runs a function on every tick until stopped or until the function
// returns false.
type Task struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Repeat starts fn on ticker's wake-ups in a new goroutine. The ticker is
// stopped when the task ends.
func Repeat(ticker Ticker, fn func() bool) *Task {
	t := &Task{stop: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C():
				select {
				case <-t.stop:
					return
				default:
				}
				if !fn() {
					return
				}
			}
		}
	}()
	return t
}

// Stop cancels future wake-ups and waits for a wake-up in progress to
// finish. It is safe to call more than once.
func (t *Task) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
