// Package eval implements the phase state machine that turns audio Leq
// measurements into collar dispatch decisions.
package eval

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"barkback/internal/audio"
	"barkback/internal/logger"
	"barkback/pkg/models"
)

// eventQueueSize is small deliberately: at most one alert and one
// evaluation event are ever in flight per phase cycle, and the alert path
// blocks the phase loop on an acknowledgement channel anyway.
const eventQueueSize = 4

// pollInterval is how often a blocking phase wait re-checks Enabled(), so
// toggling the control surface takes effect promptly instead of only at
// the next phase boundary.
const pollInterval = 50 * time.Millisecond

// CommandDispatcher is the command handler surface the scheduler dispatches
// through; satisfied by *rf.Handler.
type CommandDispatcher interface {
	HandleCommand(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16) bool
}

// SettingsReader is the read side of a settings service: fn runs under the
// service's lock and should only copy fields to locals.
type SettingsReader interface {
	Read(fn func(*models.Settings))
}

// StateFunc receives the evaluator's telemetry surface on every state
// change worth publishing.
type StateFunc func(models.MicState)

type workItem struct {
	event models.Event
	done  chan struct{} // closed once processed; nil for fire-and-forget
}

// Scheduler runs the Idle -> Alert -> Action -> Dispatch phase machine
// against a stream of audio WindowStats, dispatching collar commands
// through a CommandDispatcher. One Scheduler is bound to one collar
// dispatch target for its lifetime.
type Scheduler struct {
	settings SettingsReader
	windows  <-chan models.WindowStats
	handler  CommandDispatcher
	log      *logger.SystemLogger
	onState  StateFunc

	mu      sync.Mutex
	enabled bool

	events chan workItem
}

// NewScheduler constructs a scheduler. onState may be nil to disable
// telemetry publication.
func NewScheduler(settings SettingsReader, windows <-chan models.WindowStats, handler CommandDispatcher, log *logger.SystemLogger, onState StateFunc) *Scheduler {
	return &Scheduler{
		settings: settings,
		windows:  windows,
		handler:  handler,
		log:      log,
		onState:  onState,
		enabled:  true,
		events:   make(chan workItem, eventQueueSize),
	}
}

// SetEnabled toggles the control surface. Disabling pauses phase
// progression at the next check point and resets to the idle baseline.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// Enabled reports the current control-surface state.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Run drives the phase machine until ctx is cancelled. It spawns the event
// worker as a child goroutine and blocks in the caller's goroutine running
// phases sequentially.
func (s *Scheduler) Run(ctx context.Context) {
	go s.runEventWorker(ctx)

	for ctx.Err() == nil {
		if !s.Enabled() {
			s.publishState(models.MicState{EventCountdownMS: -1})
			s.sleepInterruptible(ctx, pollInterval)
			continue
		}

		if !s.runIdlePhase(ctx) {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		if !s.runAlertPhase(ctx) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if !s.Enabled() {
			continue
		}

		passRate, ok := s.runActionPhase(ctx)
		if !ok {
			continue
		}
		s.dispatchEvaluation(passRate)
	}
}

// runIdlePhase sleeps for a duration sampled uniformly from the current
// idle period settings. It returns false if the sleep was interrupted by
// context cancellation or the evaluator being disabled mid-phase.
func (s *Scheduler) runIdlePhase(ctx context.Context) bool {
	var lo, hi int
	s.settings.Read(func(st *models.Settings) {
		lo, hi = st.IdlePeriodMinMS, st.IdlePeriodMaxMS
	})
	duration := time.Duration(randIntRange(lo, hi)) * time.Millisecond

	s.publishState(models.MicState{EventCountdownMS: -1})
	return s.sleepInterruptible(ctx, duration)
}

// runAlertPhase posts an alert event and blocks until the event worker
// finishes it, if an alert type is configured. Returns false only on
// context cancellation; a disable cuts the alert short but still returns
// true, and Run re-checks Enabled() afterwards.
func (s *Scheduler) runAlertPhase(ctx context.Context) bool {
	var alertType models.AlertType
	var alertDurationMS, alertStrength int
	s.settings.Read(func(st *models.Settings) {
		alertType, alertDurationMS, alertStrength = st.AlertType, st.AlertDurationMS, st.AlertStrength
	})
	if alertType == models.AlertNone {
		return true
	}

	done := make(chan struct{})
	item := workItem{
		event: models.Event{
			Kind:            models.EventAlert,
			AlertType:       alertType,
			AlertDurationMS: alertDurationMS,
			AlertStrength:   alertStrength,
		},
		done: done,
	}
	select {
	case s.events <- item:
	case <-ctx.Done():
		return false
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// runActionPhase drains the windows channel, converting each WindowStats to
// an instant dB value with audio.Decibels and classifying it against the
// sampled threshold. It returns the resulting dbPassRate and true, or
// (0, false) if interrupted before the phase duration elapsed.
func (s *Scheduler) runActionPhase(ctx context.Context) (float64, bool) {
	var actionMinMS, actionMaxMS int
	var thresholdMin, thresholdMax float64
	var passType models.PassType
	s.settings.Read(func(st *models.Settings) {
		actionMinMS, actionMaxMS = st.ActionPeriodMinMS, st.ActionPeriodMaxMS
		thresholdMin, thresholdMax = st.DecibelThresholdMin, st.DecibelThresholdMax
		passType = st.PassType
	})
	durationMS := randIntRange(actionMinMS, actionMaxMS)
	thresholdDB := thresholdMin
	if thresholdMax > thresholdMin {
		thresholdDB = thresholdMin + rand.Float64()*(thresholdMax-thresholdMin)
	}

	timer := time.NewTimer(time.Duration(durationMS) * time.Millisecond)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	ticksTotal, ticksPassed := 0, 0
	start := time.Now()

actionLoop:
	for {
		select {
		case <-ctx.Done():
			return 0, false
		case <-timer.C:
			break actionLoop
		case <-ticker.C:
			if !s.Enabled() {
				return 0, false
			}
			remaining := durationMS - int(time.Since(start).Milliseconds())
			s.publishState(models.MicState{
				DBThreshold:      thresholdDB,
				EventCountdownMS: int64(remaining),
				DBPassRate:       ratio(ticksPassed, ticksTotal),
				Enabled:          true,
			})
		case w, ok := <-s.windows:
			if !ok {
				return 0, false
			}
			// Classification runs against the instant per-window dB, not the
			// coarser telemetry Leq averaged over a quarter-second.
			dbVal := audio.Decibels(w.SumSqrWeighted, audio.SamplesShort)
			ticksTotal++
			passed := dbVal >= thresholdDB
			if passed {
				ticksPassed++
			}
			s.publishState(models.MicState{
				DBThreshold:      thresholdDB,
				DBValue:          dbVal,
				EventCountdownMS: int64(durationMS - int(time.Since(start).Milliseconds())),
				DBPassRate:       ratio(ticksPassed, ticksTotal),
				Enabled:          true,
			})
			if passType == models.FirstPass && passed {
				return 1.0, true
			}
		}
	}
	return ratio(ticksPassed, ticksTotal), true
}

func ratio(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total)
}

// dispatchEvaluation picks affirmation or correction steps by comparing
// passRate against the configured pass threshold and posts them as a
// fire-and-forget evaluation event; the caller does not wait for dispatch
// to finish before the next idle phase begins.
func (s *Scheduler) dispatchEvaluation(passRate float64) {
	var passThreshold float64
	var correction, affirmation []models.Step
	s.settings.Read(func(st *models.Settings) {
		passThreshold = st.PassThreshold
		correction = st.CorrectionSteps
		affirmation = st.AffirmationSteps
	})
	steps := correction
	if passRate >= passThreshold {
		steps = affirmation
	}
	ev := models.Event{Kind: models.EventEvaluation, PassRate: passRate, Steps: steps}
	select {
	case s.events <- workItem{event: ev}:
	default:
		if s.log != nil {
			s.log.LogDebug("eval", "events channel full, dropping evaluation dispatch")
		}
	}
}

func (s *Scheduler) runEventWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-s.events:
			s.processEvent(ctx, item.event)
			if item.done != nil {
				close(item.done)
			}
		}
	}
}

func (s *Scheduler) processEvent(ctx context.Context, ev models.Event) {
	switch ev.Kind {
	case models.EventAlert:
		s.dispatchAlert(ctx, ev)
	case models.EventEvaluation:
		s.dispatchSteps(ctx, ev.Steps, ev.PassRate)
	}
}

func (s *Scheduler) dispatchAlert(ctx context.Context, ev models.Event) {
	kind := models.Vibrate
	intensity := uint8(0)
	if ev.AlertType == models.AlertCollarVibration {
		intensity = clampU8(float64(ev.AlertStrength))
	} else {
		kind = models.Sound // Beep ignores strength
	}
	s.handler.HandleCommand(models.CaiXianlin, 0, kind, intensity, uint16(ev.AlertDurationMS))
	s.sleepInterruptible(ctx, time.Duration(ev.AlertDurationMS)*time.Millisecond)
	s.handler.HandleCommand(models.CaiXianlin, 0, models.Stop, 0, 0)
}

func (s *Scheduler) dispatchSteps(ctx context.Context, steps []models.Step, passRate float64) {
	var collarMinShock, collarMaxShock, collarMinVibe, collarMaxVibe int
	s.settings.Read(func(st *models.Settings) {
		collarMinShock, collarMaxShock = st.CollarMinShock, st.CollarMaxShock
		collarMinVibe, collarMaxVibe = st.CollarMinVibe, st.CollarMaxVibe
	})

	for _, step := range steps {
		var strength uint8
		switch step.Kind {
		case models.Shock:
			strength = mapRange(sampleRange(step.StrengthRange, step.StrengthRangeType, passRate), collarMinShock, collarMaxShock)
		case models.Vibrate:
			strength = mapRange(sampleRange(step.StrengthRange, step.StrengthRangeType, passRate), collarMinVibe, collarMaxVibe)
		}
		durationMS := uint16(sampleRange(step.TimeRange, step.TimeRangeType, passRate) * 1000)

		s.handler.HandleCommand(models.CaiXianlin, 0, step.Kind, strength, durationMS)
		if !s.sleepInterruptible(ctx, time.Duration(durationMS)*time.Millisecond) {
			return
		}
		s.handler.HandleCommand(models.CaiXianlin, 0, models.Stop, 0, 0)
	}
}

// sleepInterruptible blocks for d, checking Enabled() every pollInterval so
// a mid-sleep disable or context cancellation returns promptly. It returns
// true only if the full duration elapsed uninterrupted.
func (s *Scheduler) sleepInterruptible(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
			return true
		case <-ticker.C:
			if !s.Enabled() {
				return false
			}
		}
	}
}

func (s *Scheduler) publishState(state models.MicState) {
	if s.onState != nil {
		s.onState(state)
	}
}
