package main

import (
	"fmt"
	"os"

	"fabrica-hq/vulcan/pkg/cli"
	"fabrica-hq/vulcan/pkg/config"
	"fabrica-hq/vulcan/pkg/telemetry/logging"
)

// initializeConfig loads the configuration singleton and installs the
// logger. Missing config files fall back to defaults so ad-hoc CLI use
// does not require a config.yaml.
func initializeConfig() error {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		config.SetConfig(config.DefaultConfig())
	} else if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	cfg := loadedConfig()
	logCfg := logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}
	if verbose {
		logCfg.Level = "debug"
		logCfg.Format = "text"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetAsDefault()
	return nil
}

func loadedConfig() *config.Config {
	return config.GetConfig()
}
