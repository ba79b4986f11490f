package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigDir = "EMBER_CONFIG_DIR"
	appDirName   = "ember"
)

// Dir returns the directory that holds settings and history. EMBER_CONFIG_DIR
// wins over the platform config directory; the working directory is the last
// resort.
func Dir() string {
	if dir := strings.TrimSpace(os.Getenv(envConfigDir)); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, appDirName)
	}
	return filepath.Join(".", "."+appDirName)
}
