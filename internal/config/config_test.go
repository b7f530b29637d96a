package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("RF_TX_PIN", "")
	t.Setenv("LOG_DIR", "")
	cfg := Load()
	if cfg.RFTxPin != 21 {
		t.Fatalf("expected default RFTxPin 21, got %d", cfg.RFTxPin)
	}
	if cfg.LogDir != "./logs" {
		t.Fatalf("expected default LogDir, got %q", cfg.LogDir)
	}
	if cfg.KeepAliveIntervalMS != 60000 {
		t.Fatalf("expected default keep-alive interval, got %d", cfg.KeepAliveIntervalMS)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("RF_TX_PIN", "4")
	t.Setenv("KEEP_ALIVE_INTERVAL_MS", "1000")
	cfg := Load()
	if cfg.RFTxPin != 4 {
		t.Fatalf("expected RFTxPin=4, got %d", cfg.RFTxPin)
	}
	if cfg.KeepAliveIntervalMS != 1000 {
		t.Fatalf("expected KeepAliveIntervalMS=1000, got %d", cfg.KeepAliveIntervalMS)
	}
}

func TestLoadFallsBackOnMalformedInt(t *testing.T) {
	t.Setenv("RF_TX_PIN", "not-a-number")
	cfg := Load()
	if cfg.RFTxPin != 21 {
		t.Fatalf("expected fallback to default on malformed value, got %d", cfg.RFTxPin)
	}
}
