package logger

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"contest-tracker/internal/config"
)

// Configure sets up the global logrus logger used across the service.
func Configure(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parse log level failed: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			PadLevelText:  false,
		})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return nil
}
