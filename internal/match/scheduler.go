package match

import (
	"sync"
	"time"
)

// Scheduler runs periodic ticks for countdowns and the bonus pool.
// Ticks are handed to the coordinator's queue, never applied directly.
type Scheduler interface {
	Every(interval time.Duration, tick func()) (stop func())
}

type tickerScheduler struct{}

// NewTickerScheduler returns a Scheduler backed by time.Ticker
func NewTickerScheduler() Scheduler {
	return tickerScheduler{}
}

func (tickerScheduler) Every(interval time.Duration, tick func()) func() {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer t.Stop()
		for {
			select {
			case <-t.C:
				tick()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
