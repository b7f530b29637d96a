package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"barkback/internal/audio"
	"barkback/internal/config"
	"barkback/internal/diagnostics"
	"barkback/internal/eval"
	"barkback/internal/logger"
	"barkback/internal/rf"
	"barkback/internal/telemetry"
	"barkback/pkg/models"
)

// NewRunCommand wires every long-running task together and blocks until an
// interrupt or terminate signal is received, then cancels all of them and
// waits for a clean exit. Grounded on the reference process's
// setupGracefulShutdown + sync.WaitGroup + context.CancelFunc combination,
// generalized from six ad-hoc goroutines to this domain's four named tasks.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "run the collar controller against a live audio source",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runController()
		},
	}
}

func runController() error {
	cfg := config.Load(envFile)

	log := logger.NewWithConfig(logger.Config{
		BasePath:           cfg.LogDir,
		MaxFileSize:        50 * 1024 * 1024,
		RetentionDays:      7,
		RotationInterval:   24 * time.Hour,
		CleanupInterval:    time.Hour,
		ThrottleInterval:   30 * time.Second,
		ThrottleMaxRepeats: 1_000_000,
	})
	start := time.Now()
	log.LogSystemStarted()
	defer func() {
		log.LogSystemShutdown(time.Since(start))
		log.Close()
	}()

	settings := config.NewSettingsService(defaultSettings())

	handler, err := rf.NewHandler(cfg.RFTxPin, nil, log)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer handler.Close()

	// No I2S/audio-capture library appears anywhere in the pack this
	// controller was grounded on; audio.Sampler plays the same injected
	// hardware-boundary role rf.RadioPeripheral plays for RF output.
	// SilentSampler stands in until a real capture backend is wired in.
	pipeline := audio.NewPipeline(audio.SilentSampler{}, nil, nil, log)

	telem := telemetry.NewPublisher()
	if err := telem.Connect(cfg.NATSURL); err != nil {
		log.LogCriticalError("telemetry", "connect", err)
	}
	defer telem.Close()

	diag := diagnostics.NewStream()

	onState := func(state models.MicState) {
		telem.PublishMicState(state)
		diag.Publish(state)
	}
	scheduler := eval.NewScheduler(settings, pipeline.Out(), handler, log, onState)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)

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

	go func() {
		defer wg.Done()
		if err := diag.ListenAndServe(cfg.DiagnosticsAddr); err != nil {
			log.LogCriticalError("diagnostics", "listen", err)
		}
	}()
	go diag.Run()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	received := <-sig
	log.LogDebug("run", fmt.Sprintf("received signal %v, shutting down", received))

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.LogDebug("run", "shutdown timed out waiting for tasks")
	}

	return nil
}
