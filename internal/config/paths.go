package config

import (
	"os"
	"path/filepath"
)

// GetIconCachePath returns the default icon cache database path
func GetIconCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/.vantage/icons.db"
	}
	return filepath.Join(homeDir, ".vantage", "icons.db")
}
