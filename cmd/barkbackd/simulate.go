package main

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"barkback/internal/audio"
	"barkback/internal/config"
	"barkback/internal/eval"
	"barkback/internal/logger"
	"barkback/internal/rf"
	"barkback/pkg/models"
)

// NewSimulateCommand runs the phase machine against a synthetic tone rather
// than a live microphone, for bench validation of threshold/pass-rate
// behavior without any real GPIO or I2S peripheral attached.
func NewSimulateCommand() *cobra.Command {
	var freqHz, amplitude float64
	var durationSec int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "run the evaluator against a synthetic tone instead of a live microphone",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSimulation(freqHz, amplitude, durationSec)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&freqHz, "freq", 1000, "synthetic tone frequency in Hz")
	f.Float64Var(&amplitude, "amplitude", 0.2, "synthetic tone amplitude, 0..1")
	f.IntVar(&durationSec, "duration", 30, "how long to run before exiting, in seconds")

	return cmd
}

func runSimulation(freqHz, amplitude float64, durationSec int) error {
	log := logger.New()
	defer log.Close()

	settings := config.NewSettingsService(defaultSettings())

	handler, err := rf.NewHandler(21, nil, log)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	defer handler.Close()

	// amplitude is a fraction of full scale; ToneSampler takes raw sample units.
	fullScale := math.Pow(2, audio.MicBits-1) - 1
	sampler := audio.NewToneSampler(freqHz, amplitude*fullScale)
	pipeline := audio.NewPipeline(sampler, nil, nil, log)

	onState := func(state models.MicState) {
		fmt.Printf("db=%.1f threshold=%.1f pass_rate=%.2f countdown_ms=%d\n",
			state.DBValue, state.DBThreshold, state.DBPassRate, state.EventCountdownMS)
	}
	scheduler := eval.NewScheduler(settings, pipeline.Out(), handler, log, onState)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(durationSec)*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := pipeline.Run(ctx); err != nil && ctx.Err() == nil {
			log.LogCriticalError("audio", "pipeline", err)
		}
	}()
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()
	wg.Wait()

	return nil
}
