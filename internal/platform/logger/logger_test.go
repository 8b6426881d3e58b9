package logger

import (
	"testing"

	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/config"
)

func TestConfigure(t *testing.T) {
	t.Cleanup(func() {
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	})

	if err := Configure(config.LogConfig{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", log.GetLevel())
	}
	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want *logrus.JSONFormatter", log.StandardLogger().Formatter)
	}
}

func TestConfigureRejectsBadInput(t *testing.T) {
	if err := Configure(config.LogConfig{Level: "loud", Format: "text"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := Configure(config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
