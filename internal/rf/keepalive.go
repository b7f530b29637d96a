package rf

import (
	"sync"
	"time"

	"barkback/internal/logger"
	"barkback/pkg/models"
)

const (
	// KeepAliveInterval is how long a collar can go without activity
	// before it receives a keep-alive vibrate.
	KeepAliveInterval = 60 * time.Second
	// KeepAliveDurationMS is the duration of the keep-alive vibrate itself.
	KeepAliveDurationMS = 300

	activityQueueSize = 32
	activityTimeout   = 10 * time.Millisecond
)

type activityMsg struct {
	poison  bool
	shocker models.KnownShocker
}

// sendFunc is how the scheduler dispatches keep-alive transmissions; the
// handler supplies a closure bound to its current transmitter so a pin
// change doesn't leave the scheduler pointing at a torn-down worker.
type sendFunc func(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16, overwrite bool) bool

// KeepAliveScheduler tracks last-activity per known collar and periodically
// emits a low-intensity vibrate to prevent receiver sleep. Its map is owned
// exclusively by its worker goroutine; external access is only through
// RegisterActivity.
type KeepAliveScheduler struct {
	log *logger.SystemLogger

	mu   sync.Mutex
	ch   chan activityMsg
	done chan struct{}
}

// NewKeepAliveScheduler constructs a disabled scheduler. Enable must be
// called before RegisterActivity has any effect.
func NewKeepAliveScheduler(log *logger.SystemLogger) *KeepAliveScheduler {
	return &KeepAliveScheduler{log: log}
}

// Enable allocates the activity channel and spawns the worker. A no-op if
// already enabled.
func (k *KeepAliveScheduler) Enable(send sendFunc) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ch != nil {
		return
	}
	ch := make(chan activityMsg, activityQueueSize)
	done := make(chan struct{})
	k.ch, k.done = ch, done
	go k.run(ch, done, send)
}

// Disable posts a poison message and joins the worker via repeated 10ms
// polls, then deallocates the channel. A no-op if already disabled.
func (k *KeepAliveScheduler) Disable() {
	k.mu.Lock()
	ch, done := k.ch, k.done
	k.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- activityMsg{poison: true}:
	case <-time.After(activityTimeout):
	}
	for {
		select {
		case <-done:
			k.mu.Lock()
			k.ch, k.done = nil, nil
			k.mu.Unlock()
			return
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// Enabled reports whether the worker is currently running.
func (k *KeepAliveScheduler) Enabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.ch != nil
}

// RegisterActivity posts a KnownShocker update. Delivery is best-effort: on
// a full channel it logs a warning and returns false, and on a disabled
// scheduler it returns false without logging; the RF transmitter's own
// back-pressure prevails.
func (k *KeepAliveScheduler) RegisterActivity(shocker models.KnownShocker) bool {
	k.mu.Lock()
	ch := k.ch
	k.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- activityMsg{shocker: shocker}:
		return true
	case <-time.After(activityTimeout):
		if k.log != nil {
			k.log.LogKeepAliveEnqueueFailure(shocker.ShockerID)
		}
		return false
	}
}

func (k *KeepAliveScheduler) run(ch chan activityMsg, done chan struct{}, send sendFunc) {
	defer close(done)
	known := make(map[uint16]models.KnownShocker)

	for {
		wait := nextWake(known, time.Now())
		timer := time.NewTimer(wait)

		select {
		case msg := <-ch:
			timer.Stop()
			if msg.poison {
				return
			}
			known[msg.shocker.ShockerID] = msg.shocker
			drainActivity(ch, known)
		case <-timer.C:
			fireDue(known, send)
		}
	}
}

// nextWake computes min(last_activity + interval) across all known
// shockers, clamped into [0, KeepAliveInterval].
func nextWake(known map[uint16]models.KnownShocker, now time.Time) time.Duration {
	wait := KeepAliveInterval
	for _, ks := range known {
		w := ks.LastActivityAt.Add(KeepAliveInterval).Sub(now)
		if w < 0 {
			w = 0
		}
		if w < wait {
			wait = w
		}
	}
	return wait
}

func drainActivity(ch chan activityMsg, known map[uint16]models.KnownShocker) {
	for {
		select {
		case msg := <-ch:
			if !msg.poison {
				known[msg.shocker.ShockerID] = msg.shocker
			}
		default:
			return
		}
	}
}

func fireDue(known map[uint16]models.KnownShocker, send sendFunc) {
	now := time.Now()
	for id, ks := range known {
		if now.Before(ks.LastActivityAt.Add(KeepAliveInterval)) {
			continue
		}
		if send != nil {
			send(ks.Model, id, models.Vibrate, 0, KeepAliveDurationMS, false)
		}
		ks.LastActivityAt = now
		known[id] = ks
	}
}
