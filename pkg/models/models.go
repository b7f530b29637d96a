// Package models holds the data types shared across the RF, audio and
// evaluation subsystems.
package models

import "time"

// ShockerModel selects which vendor encoder and bit framing a command uses.
type ShockerModel int

const (
	CaiXianlin ShockerModel = iota
	Petrainer
	Petrainer998DR
)

func (m ShockerModel) String() string {
	switch m {
	case CaiXianlin:
		return "CaiXianlin"
	case Petrainer:
		return "Petrainer"
	case Petrainer998DR:
		return "Petrainer998DR"
	default:
		return "Unknown"
	}
}

// CommandKind is the action a collar command performs. Stop is synthetic:
// the command handler rewrites it into a zero-intensity short Vibrate.
type CommandKind int

const (
	Stop CommandKind = iota
	Shock
	Vibrate
	Sound
)

func (k CommandKind) String() string {
	switch k {
	case Stop:
		return "Stop"
	case Shock:
		return "Shock"
	case Vibrate:
		return "Vibrate"
	case Sound:
		return "Sound"
	default:
		return "Unknown"
	}
}

// Command is the input accepted by the command handler.
type Command struct {
	Model      ShockerModel
	ShockerID  uint16
	Kind       CommandKind
	Intensity  uint8 // 0..100, clamped per model by the encoder
	DurationMS uint16
}

// Pulse is a single (level, duration) element of a PulseList. Level
// alternates starting from low; the list always ends on a low level.
type Pulse struct {
	High       bool
	DurationNS int64
}

// PulseList is the ordered waveform an encoder produces for one command.
type PulseList []Pulse

// TotalDurationNS sums the pulse durations; the software radio sleeps for
// this long per transmission.
func (p PulseList) TotalDurationNS() int64 {
	var total int64
	for _, pulse := range p {
		total += pulse.DurationNS
	}
	return total
}

// PendingTx is one entry in the RF transmitter's pending list.
type PendingTx struct {
	ShockerID uint16
	Until     time.Time
	ActiveSeq PulseList
	ZeroSeq   PulseList
	Overwrite bool
}

// KnownShocker is a keep-alive map entry: the last time this shocker
// received activity, and the model needed to build its keep-alive frame.
type KnownShocker struct {
	Model          ShockerModel
	ShockerID      uint16
	LastActivityAt time.Time
}

// WindowStats is produced by the audio pipeline once per SamplesShort block.
type WindowStats struct {
	SumSqrEqualized float64
	SumSqrWeighted  float64
}

// Phase is the evaluation scheduler's state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAlert
	PhaseAction
	PhaseDispatch
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAlert:
		return "Alert"
	case PhaseAction:
		return "Action"
	case PhaseDispatch:
		return "Dispatch"
	default:
		return "Unknown"
	}
}

// PhaseState tracks the current phase's timing and pass accounting.
type PhaseState struct {
	Phase       Phase
	StartedAt   time.Time
	DurationMS  int
	ThresholdDB float64
	TicksTotal  int
	TicksPassed int
}

// RangeMode selects how a Step's time/strength range is sampled.
// Progressive, Redeemable and Graded are declared but currently behave
// identically to Fixed — see design notes.
type RangeMode int

const (
	Fixed RangeMode = iota
	Random
	Progressive
	Redeemable
	Graded
)

// PassType selects how the action phase decides a pass/fail dispatch.
type PassType int

const (
	FirstPass PassType = iota
	GradedPass
)

// AlertType selects the pre-evaluation warning, if any.
type AlertType int

const (
	AlertNone AlertType = iota
	AlertCollarBeep
	AlertCollarVibration
)

// Step is one element of a programmed affirmation or correction sequence.
type Step struct {
	Kind              CommandKind
	StartDelayMS      int
	EndDelayMS        int
	TimeRangeType     RangeMode
	TimeRange         [2]float64
	StrengthRangeType RangeMode
	StrengthRange     [2]float64
}

// Settings is the read-mostly configuration snapshot consumed by the
// evaluation scheduler. Access goes through a SettingsService (see
// internal/config), never held directly across a phase boundary.
type Settings struct {
	IdlePeriodMinMS   int
	IdlePeriodMaxMS   int
	ActionPeriodMinMS int
	ActionPeriodMaxMS int

	DecibelThresholdMin float64
	DecibelThresholdMax float64

	CollarMinShock int
	CollarMaxShock int
	CollarMinVibe  int
	CollarMaxVibe  int

	AlertType       AlertType
	AlertDurationMS int
	AlertStrength   int

	PassType      PassType
	PassThreshold float64

	CorrectionSteps  []Step
	AffirmationSteps []Step
}

// EventKind distinguishes the two events posted to the evaluation events
// channel.
type EventKind int

const (
	EventAlert EventKind = iota
	EventEvaluation
)

// Event is posted by the phase state machine and drained by the event
// worker, which never processes two concurrently.
type Event struct {
	Kind EventKind

	AlertType       AlertType
	AlertDurationMS int
	AlertStrength   int

	PassRate float64
	Steps    []Step
}

// MicState is the evaluation telemetry surface published on change.
type MicState struct {
	DBThreshold      float64 `json:"db_threshold"`
	DBValue          float64 `json:"db_value"`
	PitchThreshold   float64 `json:"pitch_threshold"`
	PitchValue       float64 `json:"pitch_value"`
	EventCountdownMS int64   `json:"event_countdown_ms"`
	DBPassRate       float64 `json:"db_pass_rate"`
	Enabled          bool    `json:"enabled"`
}
