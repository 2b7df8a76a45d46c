package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/computerscienceiscool/llm-fstools/pkg/app"
	"github.com/computerscienceiscool/llm-fstools/pkg/config"
)

type pflagFlag = pflag.Flag

// search.timeout is read from LLMFS_SEARCH_TIMEOUT
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// initConfig reads in the config file and LLMFS_* environment variables
func initConfig(v *viper.Viper) error {
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(config.ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and flags
	}
	return nil
}

// buildConfig constructs a config.Config from Viper values
func buildConfig(v *viper.Viper) (*config.Config, error) {
	return config.FromViper(v)
}

// bootstrapApp wraps the app.Bootstrap function
func bootstrapApp(cfg *config.Config) (*app.App, error) {
	return app.Bootstrap(cfg)
}
