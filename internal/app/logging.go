package app

import (
	"fmt"
	"os"

	"github.com/amaumene/syllabus-merge/internal/config"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and format to the standard
// logrus logger.
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
