// Package logger provides the per-category rotating file logger used
// throughout the controller. Categories are severities (errors, warnings,
// system info, debug), each written to its own file so an operator can
// tail one severity without noise from the others.
package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Config struct {
	BasePath         string
	MaxFileSize      int64
	RetentionDays    int
	RotationInterval time.Duration
	EnableDebug      bool
	CleanupInterval  time.Duration
	ConsoleOutput    bool

	ThrottleInterval   time.Duration
	ThrottleMaxRepeats int
}

func DefaultConfig() Config {
	return Config{
		BasePath:           "logs",
		MaxFileSize:        50 * 1024 * 1024,
		RetentionDays:      7,
		RotationInterval:   24 * time.Hour,
		EnableDebug:        false,
		CleanupInterval:    time.Hour,
		ConsoleOutput:      false,
		ThrottleInterval:   30 * time.Second,
		ThrottleMaxRepeats: 1_000_000,
	}
}

// SystemLogger is a per-category rotating file logger with throttled
// critical-error reporting. It is safe for concurrent use.
type SystemLogger struct {
	config Config

	errorLogger *log.Logger
	warnLogger  *log.Logger
	infoLogger  *log.Logger
	debugLogger *log.Logger

	errorFile *os.File
	warnFile  *os.File
	infoFile  *os.File
	debugFile *os.File

	mu             sync.RWMutex
	lastRotation   time.Time
	cleanupCancel  context.CancelFunc
	isShuttingDown bool

	throttleMu  sync.Mutex
	lastLog     map[string]time.Time
	repeatCount map[string]int
}

// New creates a logger with DefaultConfig.
func New() *SystemLogger {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a logger with a custom configuration.
func NewWithConfig(config Config) *SystemLogger {
	l := &SystemLogger{
		config:      config,
		lastRotation: time.Now(),
		lastLog:     make(map[string]time.Time),
		repeatCount: make(map[string]int),
	}
	if err := l.createLogDirectories(); err != nil {
		log.Fatalf("logger: cannot create log directories: %v", err)
	}
	if err := l.initializeLogFiles(); err != nil {
		log.Fatalf("logger: cannot open log files: %v", err)
	}
	l.startCleanupRoutine()
	return l
}

func (l *SystemLogger) createLogDirectories() error {
	for _, dir := range []string{"errors", "system", "warnings", "debug"} {
		if err := os.MkdirAll(filepath.Join(l.config.BasePath, dir), 0755); err != nil {
			return fmt.Errorf("logger: mkdir %s: %w", dir, err)
		}
	}
	return nil
}

func (l *SystemLogger) initializeLogFiles() error {
	dateStr := time.Now().Format("2006-01-02")
	var err error

	errorPath := filepath.Join(l.config.BasePath, "errors", fmt.Sprintf("errors_%s.log", dateStr))
	if l.errorFile, err = os.OpenFile(errorPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
		return fmt.Errorf("logger: open error log: %w", err)
	}
	l.errorLogger = log.New(l.errorFile, "[ERROR] ", log.LstdFlags|log.Lshortfile)

	warnPath := filepath.Join(l.config.BasePath, "warnings", fmt.Sprintf("warnings_%s.log", dateStr))
	if l.warnFile, err = os.OpenFile(warnPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
		return fmt.Errorf("logger: open warn log: %w", err)
	}
	l.warnLogger = log.New(l.warnFile, "[WARN]  ", log.LstdFlags)

	infoPath := filepath.Join(l.config.BasePath, "system", fmt.Sprintf("system_%s.log", dateStr))
	if l.infoFile, err = os.OpenFile(infoPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
		return fmt.Errorf("logger: open system log: %w", err)
	}
	l.infoLogger = log.New(l.infoFile, "[INFO]  ", log.LstdFlags)

	if l.config.EnableDebug {
		debugPath := filepath.Join(l.config.BasePath, "debug", fmt.Sprintf("debug_%s.log", dateStr))
		if l.debugFile, err = os.OpenFile(debugPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err != nil {
			return fmt.Errorf("logger: open debug log: %w", err)
		}
		l.debugLogger = log.New(l.debugFile, "[DEBUG] ", log.LstdFlags|log.Lshortfile)
	} else {
		l.debugLogger = log.New(os.Stdout, "[DEBUG] ", log.LstdFlags)
	}
	return nil
}

func (l *SystemLogger) startCleanupRoutine() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cleanupCancel = cancel

	go func() {
		ticker := time.NewTicker(l.config.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.performMaintenance()
			}
		}
	}()
}

func (l *SystemLogger) performMaintenance() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isShuttingDown {
		return
	}
	if time.Since(l.lastRotation) >= l.config.RotationInterval {
		l.rotateLogsUnsafe()
	}
	l.checkFileSizesUnsafe()
	l.cleanupOldLogsUnsafe()
}

func (l *SystemLogger) checkFileSizesUnsafe() {
	files := []*os.File{l.errorFile, l.warnFile, l.infoFile}
	if l.debugFile != nil {
		files = append(files, l.debugFile)
	}
	for _, f := range files {
		if f == nil {
			continue
		}
		if stat, err := f.Stat(); err == nil && stat.Size() >= l.config.MaxFileSize {
			l.rotateLogsUnsafe()
			return
		}
	}
}

func (l *SystemLogger) rotateLogsUnsafe() error {
	l.closeFilesUnsafe()
	if err := l.initializeLogFiles(); err != nil {
		return err
	}
	l.lastRotation = time.Now()
	if l.infoLogger != nil {
		l.infoLogger.Printf("LOG_ROTATION: timestamp=%s", l.lastRotation.Format(time.RFC3339))
	}
	return nil
}

func (l *SystemLogger) cleanupOldLogsUnsafe() {
	cutoff := time.Now().AddDate(0, 0, -l.config.RetentionDays)
	for _, category := range []string{"errors", "system", "warnings", "debug"} {
		dir := filepath.Join(l.config.BasePath, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			info, err := entry.Info()
			if err != nil || !info.ModTime().Before(cutoff) || l.isFileInUseUnsafe(path) {
				continue
			}
			os.Remove(path)
		}
	}
}

func (l *SystemLogger) isFileInUseUnsafe(path string) bool {
	for _, f := range []*os.File{l.errorFile, l.warnFile, l.infoFile, l.debugFile} {
		if f != nil && f.Name() == path {
			return true
		}
	}
	return false
}

func (l *SystemLogger) closeFilesUnsafe() {
	for _, f := range []**os.File{&l.errorFile, &l.warnFile, &l.infoFile, &l.debugFile} {
		if *f != nil {
			(*f).Close()
			*f = nil
		}
	}
}

// --- domain-specific sinks --------------------------------------------------

func (l *SystemLogger) LogRFTransmitFailure(shockerID uint16, reason string) {
	l.mu.RLock()
	if l.warnLogger != nil {
		l.warnLogger.Printf("RF_TRANSMIT_FAILED: shocker_id=%d reason=%s", shockerID, reason)
	}
	l.mu.RUnlock()
	if l.config.ConsoleOutput {
		fmt.Printf("RF transmit failed for shocker %d: %s\n", shockerID, reason)
	}
}

func (l *SystemLogger) LogCollarRegistered(shockerID uint16, model string) {
	l.mu.RLock()
	if l.infoLogger != nil {
		l.infoLogger.Printf("COLLAR_REGISTERED: shocker_id=%d model=%s", shockerID, model)
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogKeepAliveEnqueueFailure(shockerID uint16) {
	l.mu.RLock()
	if l.warnLogger != nil {
		l.warnLogger.Printf("KEEPALIVE_ENQUEUE_FAILED: shocker_id=%d", shockerID)
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogOverload(sumSqr float64) {
	l.mu.RLock()
	if l.warnLogger != nil {
		l.warnLogger.Printf("AUDIO_OVERLOAD: sum_sqr=%v", sumSqr)
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogNoiseFloor() {
	l.mu.RLock()
	if l.warnLogger != nil {
		l.warnLogger.Printf("AUDIO_NOISE_FLOOR_LATCH")
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogPhaseTransition(from, to string) {
	l.mu.RLock()
	if l.infoLogger != nil {
		l.infoLogger.Printf("PHASE_TRANSITION: from=%s to=%s", from, to)
	}
	l.mu.RUnlock()
	if l.config.ConsoleOutput {
		fmt.Printf("phase: %s -> %s\n", from, to)
	}
}

func (l *SystemLogger) LogSystemStarted() {
	l.mu.RLock()
	if l.infoLogger != nil {
		l.infoLogger.Printf("SYSTEM_STARTED")
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogSystemShutdown(uptime time.Duration) {
	l.mu.RLock()
	if l.infoLogger != nil {
		l.infoLogger.Printf("SYSTEM_SHUTDOWN: uptime=%v", uptime)
	}
	l.mu.RUnlock()
}

// LogCriticalError logs err under component/operation, throttling repeats
// of the identical (component, operation, message) tuple so a hot failure
// loop doesn't flood the error log.
func (l *SystemLogger) LogCriticalError(component, operation string, err error) {
	if err == nil {
		return
	}
	key := component + "|" + operation + "|" + err.Error()
	now := time.Now()

	l.throttleMu.Lock()
	last, seen := l.lastLog[key]
	if seen && now.Sub(last) < l.config.ThrottleInterval {
		if l.repeatCount[key] >= l.config.ThrottleMaxRepeats {
			l.repeatCount[key] = 0
			l.lastLog[key] = now
			l.throttleMu.Unlock()
			return
		}
		l.repeatCount[key]++
		l.throttleMu.Unlock()
		return
	}
	repeats := l.repeatCount[key]
	l.repeatCount[key] = 0
	l.lastLog[key] = now
	l.throttleMu.Unlock()

	msg := err.Error()
	if repeats > 0 {
		msg = fmt.Sprintf("%s (repeated %d times since %s)", msg, repeats, last.Format(time.RFC3339))
	}

	l.mu.RLock()
	if l.errorLogger != nil {
		l.errorLogger.Printf("CRITICAL_ERROR: component=%s operation=%s error=%s", component, operation, msg)
	}
	l.mu.RUnlock()
}

func (l *SystemLogger) LogDebug(component, message string) {
	if !l.config.EnableDebug {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.debugLogger != nil {
		l.debugLogger.Printf("DEBUG: component=%s message=%s", component, message)
	}
}

// ForceRotation rotates all category files immediately.
func (l *SystemLogger) ForceRotation() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.isShuttingDown {
		return fmt.Errorf("logger: shutting down")
	}
	return l.rotateLogsUnsafe()
}

// Close stops the cleanup routine and closes all open files.
func (l *SystemLogger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.isShuttingDown = true
	if l.cleanupCancel != nil {
		l.cleanupCancel()
	}
	l.closeFilesUnsafe()
}
