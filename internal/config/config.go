// Package config loads process-wide configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the load-once, no-live-reload process configuration. Runtime
// tunables that change while the process runs (thresholds, step sequences)
// live in Settings instead, not here.
type Config struct {
	// RF output
	RFTxPin uint8

	// Audio input
	I2SBCLKPin uint8
	I2SWSPin   uint8
	I2SDataPin uint8

	// Logging
	LogDir string

	// Telemetry
	NATSURL         string
	DiagnosticsAddr string

	// Keep-alive interval as loaded from the environment. The rf keep-alive
	// scheduler does not read it; it runs on its fixed KeepAliveInterval.
	KeepAliveIntervalMS int
}

// Load reads Config from the environment, applying envFiles first (in
// order) if given, falling back to a .env file in the working directory
// otherwise. Missing or malformed values fall back to their defaults; a
// malformed value is logged, not fatal.
func Load(envFiles ...string) *Config {
	_ = godotenv.Load(envFiles...)

	return &Config{
		RFTxPin: getEnvUint8("RF_TX_PIN", 21),

		I2SBCLKPin: getEnvUint8("I2S_BCLK_PIN", 26),
		I2SWSPin:   getEnvUint8("I2S_WS_PIN", 25),
		I2SDataPin: getEnvUint8("I2S_DATA_PIN", 33),

		LogDir: getEnv("LOG_DIR", "./logs"),

		NATSURL:         getEnv("NATS_URL", ""),
		DiagnosticsAddr: getEnv("DIAGNOSTICS_ADDR", ":8089"),

		KeepAliveIntervalMS: getEnvInt("KEEP_ALIVE_INTERVAL_MS", 60000),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("config: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvUint8(key string, defaultValue uint8) uint8 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		log.Printf("config: failed to parse %s as a GPIO pin number, using default: %v", key, err)
		return defaultValue
	}
	return uint8(parsed)
}
