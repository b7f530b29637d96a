package eval

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"barkback/internal/audio"
	"barkback/pkg/models"
)

// fakeSettings is a fixed-value SettingsReader for tests; no mutation, no
// lock needed since fields never change after construction.
type fakeSettings struct {
	settings models.Settings
}

func (f *fakeSettings) Read(fn func(*models.Settings)) {
	fn(&f.settings)
}

// fakeDispatcher records every HandleCommand call.
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []models.Command
}

func (f *fakeDispatcher) HandleCommand(model models.ShockerModel, id uint16, kind models.CommandKind, intensity uint8, durationMS uint16) bool {
	f.mu.Lock()
	f.calls = append(f.calls, models.Command{Model: model, ShockerID: id, Kind: kind, Intensity: intensity, DurationMS: durationMS})
	f.mu.Unlock()
	return true
}

func (f *fakeDispatcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// sumSqrForDB inverts audio.Decibels to find the sum-of-squares that
// produces the requested dB reading over SamplesShort samples.
func sumSqrForDB(db float64) float64 {
	rms := audio.MicRefAmpl * math.Pow(10, (db-audio.MicOffsetDB-audio.MicRefDB)/20)
	return rms * rms * float64(audio.SamplesShort)
}

// TestScenarioS5FirstPassShortCircuits covers S5: pass_type=FirstPass,
// threshold_db=70. Feeding dB values [60, 65, 75, 80, 60] must dispatch at
// the third sample with pass_rate=1.0, without waiting for the rest.
func TestScenarioS5FirstPassShortCircuits(t *testing.T) {
	settings := &fakeSettings{settings: models.Settings{
		ActionPeriodMinMS:   2000,
		ActionPeriodMaxMS:   2000,
		DecibelThresholdMin: 70,
		DecibelThresholdMax: 70,
		PassType:            models.FirstPass,
	}}
	windows := make(chan models.WindowStats, 5)
	for _, db := range []float64{60, 65, 75, 80, 60} {
		windows <- models.WindowStats{SumSqrWeighted: sumSqrForDB(db)}
	}

	s := NewScheduler(settings, windows, &fakeDispatcher{}, nil, nil)

	deadline, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	passRate, ok := s.runActionPhase(deadline)
	if !ok {
		t.Fatalf("expected runActionPhase to complete, not be interrupted")
	}
	if passRate != 1.0 {
		t.Fatalf("expected pass_rate=1.0 on FirstPass short-circuit, got %v", passRate)
	}
}

// TestScenarioS6GradedAccumulates covers S6: pass_type=Graded,
// threshold_db=70, action=short duration. Feeding [60, 75, 60, 75, 60]
// (2 of 5 passing) must yield pass_rate ~= 0.4.
func TestScenarioS6GradedAccumulates(t *testing.T) {
	settings := &fakeSettings{settings: models.Settings{
		ActionPeriodMinMS:   50,
		ActionPeriodMaxMS:   50,
		DecibelThresholdMin: 70,
		DecibelThresholdMax: 70,
		PassType:            models.GradedPass,
	}}
	windows := make(chan models.WindowStats, 5)
	for _, db := range []float64{60, 75, 60, 75, 60} {
		windows <- models.WindowStats{SumSqrWeighted: sumSqrForDB(db)}
	}

	s := NewScheduler(settings, windows, &fakeDispatcher{}, nil, nil)

	deadline, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	passRate, ok := s.runActionPhase(deadline)
	if !ok {
		t.Fatalf("expected runActionPhase to complete, not be interrupted")
	}
	if math.Abs(passRate-0.4) > 0.01 {
		t.Fatalf("expected pass_rate ~= 0.4, got %v", passRate)
	}
}

// TestDispatchEvaluationPicksAffirmationOrCorrection checks the pass
// threshold comparison in isolation from timing.
func TestDispatchEvaluationPicksAffirmationOrCorrection(t *testing.T) {
	affirmation := []models.Step{{Kind: models.Vibrate, StrengthRange: [2]float64{0.2, 0.2}, TimeRange: [2]float64{0.01, 0.01}}}
	correction := []models.Step{{Kind: models.Shock, StrengthRange: [2]float64{0.5, 0.5}, TimeRange: [2]float64{0.01, 0.01}}}

	settings := &fakeSettings{settings: models.Settings{
		PassThreshold:    0.5,
		AffirmationSteps: affirmation,
		CorrectionSteps:  correction,
		CollarMinShock:   1,
		CollarMaxShock:   50,
		CollarMinVibe:    1,
		CollarMaxVibe:    50,
	}}
	dispatcher := &fakeDispatcher{}
	windows := make(chan models.WindowStats)
	s := NewScheduler(settings, windows, dispatcher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.runEventWorker(ctx)

	s.dispatchEvaluation(0.8) // above threshold -> affirmation (Vibrate)

	deadline := time.Now().Add(time.Second)
	for dispatcher.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	if len(dispatcher.calls) < 2 {
		t.Fatalf("expected at least a Vibrate command then a Stop, got %v", dispatcher.calls)
	}
	if dispatcher.calls[0].Kind != models.Vibrate {
		t.Fatalf("expected affirmation (Vibrate) for passRate above threshold, got %v", dispatcher.calls[0].Kind)
	}
}
