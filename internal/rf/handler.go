package rf

import (
	"errors"
	"sync"
	"time"

	"barkback/internal/logger"
	"barkback/pkg/models"
)

// ErrInvalidPin is returned by NewHandler and SetRfTxPin for a pin outside
// the set of valid digital-output GPIOs.
var ErrInvalidPin = errors.New("rf: invalid output pin")

// Handler is the single-process facade over the RF transmitter and the
// keep-alive scheduler. It is constructed once per running controller and
// injected where needed — never a package-level singleton.
type Handler struct {
	log *logger.SystemLogger

	mu          sync.Mutex
	transmitter *Transmitter
	pin         uint8

	keepAlive       *KeepAliveScheduler
	keepAliveWant   bool
	keepAlivePaused bool
}

// NewHandler constructs a handler transmitting on pin, using radioFactory
// to build the underlying RadioPeripheral (NewSoftwareRadio outside of real
// hardware). Keep-alive defaults to disabled; callers must opt in via
// SetKeepAliveEnabled.
func NewHandler(pin uint8, radioFactory func(pin uint8) RadioPeripheral, log *logger.SystemLogger) (*Handler, error) {
	if !IsValidOutputPin(pin) {
		return nil, ErrInvalidPin
	}
	if radioFactory == nil {
		radioFactory = NewSoftwareRadio
	}
	h := &Handler{
		log:         log,
		transmitter: NewTransmitter(radioFactory(pin), log),
		pin:         pin,
		keepAlive:   NewKeepAliveScheduler(log),
	}
	return h, nil
}

// Ok reports whether the handler has a live transmitter.
func (h *Handler) Ok() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transmitter != nil
}

// SetRfTxPin validates pin, then atomically swaps in a fresh transmitter on
// the new pin, closing (and joining) the old one.
func (h *Handler) SetRfTxPin(pin uint8, radioFactory func(pin uint8) RadioPeripheral) error {
	if !IsValidOutputPin(pin) {
		return ErrInvalidPin
	}
	if radioFactory == nil {
		radioFactory = NewSoftwareRadio
	}
	h.mu.Lock()
	old := h.transmitter
	h.transmitter = NewTransmitter(radioFactory(pin), h.log)
	h.pin = pin
	h.mu.Unlock()

	old.Close()
	return nil
}

func (h *Handler) currentTransmitter() *Transmitter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transmitter
}

// send is the keep-alive scheduler's sendFunc, always dispatched against
// whichever transmitter is current.
func (h *Handler) send(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16, overwrite bool) bool {
	return h.currentTransmitter().SendCommand(model, id, kind, intensity, durationMS, overwrite)
}

// SetKeepAliveEnabled toggles the persistent keep-alive configuration.
func (h *Handler) SetKeepAliveEnabled(enabled bool) {
	h.mu.Lock()
	h.keepAliveWant = enabled
	paused := h.keepAlivePaused
	h.mu.Unlock()
	h.syncKeepAlive(enabled, paused)
}

// SetKeepAlivePaused toggles the worker without changing the persistent
// enabled configuration — used to silence keep-alives during, e.g., a
// dispatch step sequence without forgetting the user's preference.
func (h *Handler) SetKeepAlivePaused(paused bool) {
	h.mu.Lock()
	h.keepAlivePaused = paused
	enabled := h.keepAliveWant
	h.mu.Unlock()
	h.syncKeepAlive(enabled, paused)
}

func (h *Handler) syncKeepAlive(enabled, paused bool) {
	if enabled && !paused {
		h.keepAlive.Enable(h.send)
	} else {
		h.keepAlive.Disable()
	}
}

// HandleCommand is the command handler's core operation. kind=Stop is
// rewritten into a zero-intensity 300ms Vibrate and clears the transmitter's
// pending queue first; any other kind passes through unchanged. On success
// it registers activity with the keep-alive scheduler, best-effort.
func (h *Handler) HandleCommand(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16) bool {
	transmitter := h.currentTransmitter()
	if transmitter == nil {
		return false
	}

	if kind == models.Stop {
		transmitter.ClearPending()
		kind = models.Vibrate
		intensity = 0
		durationMS = 300
	}

	if !transmitter.SendCommand(model, id, kind, intensity, durationMS, true) {
		return false
	}

	if h.log != nil {
		h.log.LogCollarRegistered(id, model.String())
	}
	h.keepAlive.RegisterActivity(models.KnownShocker{
		Model:          model,
		ShockerID:      id,
		LastActivityAt: time.Now().Add(time.Duration(durationMS) * time.Millisecond),
	})
	return true
}

// Close tears down the transmitter and keep-alive scheduler.
func (h *Handler) Close() {
	h.keepAlive.Disable()
	h.currentTransmitter().Close()
}
