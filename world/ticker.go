package world

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Ticker drives every room at the fixed tick rate with drift correction.
// The per-tick delta is capped so a starved scheduler produces a slow-
// motion catch-up instead of a teleport.
type Ticker struct {
	d        *Director
	interval time.Duration
	deltaCap time.Duration

	lastTick     time.Time
	nextDeadline time.Time
	tickCount    atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// NewTicker builds the ticker from the director's config.
func NewTicker(d *Director) *Ticker {
	return &Ticker{
		d:        d,
		interval: d.cfg.TickInterval(),
		deltaCap: d.cfg.TickDeltaCap(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the loop.
func (t *Ticker) Start() {
	if t.running.CompareAndSwap(false, true) {
		t.wg.Add(1)
		go t.loop()
	}
}

// Stop halts the loop and waits for the in-flight tick to finish.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() {
		if t.running.CompareAndSwap(true, false) {
			close(t.stopChan)
			t.wg.Wait()
		}
	})
}

// TickCount returns the number of completed ticks.
func (t *Ticker) TickCount() uint64 {
	return t.tickCount.Load()
}

func (t *Ticker) loop() {
	defer t.wg.Done()

	t.lastTick = time.Now()
	t.nextDeadline = t.lastTick.Add(t.interval)

	timer := time.NewTimer(t.interval)
	defer timer.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case now := <-timer.C:
			t.tick(now)

			t.nextDeadline = t.nextDeadline.Add(t.interval)
			// Re-anchor when we have fallen more than two intervals
			// behind rather than burst-ticking to catch up.
			if now.Sub(t.nextDeadline) > 2*t.interval {
				t.nextDeadline = now.Add(t.interval)
			}
			sleep := time.Until(t.nextDeadline)
			if sleep < 0 {
				sleep = 0
			}
			timer.Reset(sleep)
		}
	}
}

// tick advances every room once and routes portal arrivals.
func (t *Ticker) tick(now time.Time) {
	delta := now.Sub(t.lastTick)
	t.lastTick = now
	if delta > t.deltaCap {
		delta = t.deltaCap
	}
	dt := delta.Seconds()

	for _, k := range t.d.kernels() {
		arrivals := k.Tick(now, dt)
		if len(arrivals) > 0 {
			t.d.handleArrivals(arrivals)
		}
	}
	t.tickCount.Add(1)

	if c := t.tickCount.Load(); c%1200 == 0 { // once a minute at 20 Hz
		t.d.log.Debug("tick heartbeat", zap.Uint64("ticks", c))
	}
}
