package config

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"github.com/sirupsen/logrus"
)

func init() {
	if err := env.Parse(&Config); err != nil {
		logrus.WithField("err", err).Warn("failed to parse the TEAMPERMS_* environment variables")
	}

	if err := SetupLogrus(Config.LogrusLevel, Config.LogrusFormat); err != nil {
		logrus.WithField("err", err).Fatalf("failed to set logrus level:%s", Config.LogrusLevel)
	}
	if Config.OpenTelemetryEnabled {
		err := setupTraceProvider(context.Background())
		if err != nil {
			panic(err)
		}
	}
}

// SetupLogrus configures the global logrus logger (level and text or json formatter)
func SetupLogrus(level, format string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(l)
	logrus.SetOutput(os.Stdout)
	switch format {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unexpected logrus format: %s, should be one of: text, json", format)
	}
	return nil
}
