package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// per-invocation keys that never belong in a config file
var transientKeys = map[string]bool{
	"config":      true,
	"input":       true,
	"output":      true,
	"interactive": true,
	"verbose":     true,
	"scratch":     true,
}

// SaveConfig writes the persistent settings of v to configPath. The
// format follows the file extension.
func SaveConfig(v *viper.Viper, configPath string) error {
	out := viper.New()
	for _, key := range v.AllKeys() {
		if transientKeys[key] {
			continue
		}
		out.Set(key, v.Get(key))
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return out.WriteConfigAs(configPath)
}

// GetConfigPath returns the default config file location
func GetConfigPath() string {
	return ConfigFileName + ".yaml"
}
