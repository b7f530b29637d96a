package rf

import (
	"fmt"
	"sync"
	"time"

	"barkback/pkg/models"
)

// RadioPeripheral is the hardware boundary the transmitter worker owns
// exclusively while transmitting. It plays the role the reference codebase
// gives SiemensPLC/gos7.Client: a narrow interface in front of a single
// physical resource, swappable via SetRfTxPin without touching callers.
type RadioPeripheral interface {
	// Transmit blocks for (approximately) the sum of the pulse durations,
	// emitting the waveform on the configured GPIO pin.
	Transmit(p models.PulseList) error
	// Pin reports the currently configured GPIO pin.
	Pin() uint8
	// Close releases any peripheral resources.
	Close() error
}

// IsValidOutputPin mirrors the pin-validity check the original firmware's
// SetRfTxPin performs before committing a new transmitter. ESP32 boards
// reserve a handful of GPIOs (6-11 map to internal flash, 34-39 are
// input-only) that cannot drive a digital output.
func IsValidOutputPin(pin uint8) bool {
	if pin >= 34 && pin <= 39 {
		return false
	}
	if pin >= 6 && pin <= 11 {
		return false
	}
	return pin <= 39
}

// softwareRadio simulates a GPIO pulse-train writer for hosts without real
// RF hardware attached. It sleeps for the pulse train's total duration and
// records the last waveform transmitted, which is enough for the worker's
// blocking-transmit contract and for tests to assert on what was sent.
type softwareRadio struct {
	mu   sync.Mutex
	pin  uint8
	last models.PulseList
}

// NewSoftwareRadio constructs a RadioPeripheral that does not require real
// hardware; it is the factory NewHandler and SetRfTxPin fall back to when
// given nil, as both `cmd/barkbackd run` and `simulate` do.
func NewSoftwareRadio(pin uint8) RadioPeripheral {
	return &softwareRadio{pin: pin}
}

func (r *softwareRadio) Transmit(p models.PulseList) error {
	if len(p) == 0 {
		return fmt.Errorf("rf: empty pulse list")
	}
	r.mu.Lock()
	r.last = p
	r.mu.Unlock()
	time.Sleep(time.Duration(p.TotalDurationNS()) * time.Nanosecond)
	return nil
}

func (r *softwareRadio) Pin() uint8 { return r.pin }

func (r *softwareRadio) Close() error { return nil }

// LastTransmitted returns the most recently transmitted waveform, for test
// assertions. Not part of the RadioPeripheral interface.
func (r *softwareRadio) LastTransmitted() models.PulseList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
