package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings represents the structure of ~/.vantage/settings.json
//
// Pointer fields distinguish "unset" from zero values so CLI flags and
// env vars can take precedence over the file.
type Settings struct {
	Debug           *bool  `json:"debug,omitempty"`
	IconCachePath   string `json:"icon_cache_path,omitempty"`
	IconWorkers     *int   `json:"icon_workers,omitempty"`
	MaxLogFiles     *int   `json:"max_log_files,omitempty"`
	PreferencesPath string `json:"preferences_path,omitempty"`
	StreamBatchSize *int   `json:"stream_batch_size,omitempty"`
	TrashPath       string `json:"trash_path,omitempty"`
	UndoDepth       *int   `json:"undo_depth,omitempty"`
	UndoTTLSeconds  *int   `json:"undo_ttl_seconds,omitempty"`
}

// GetSettingsFilePath returns the path to the settings file
func GetSettingsFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/.vantage/settings.json" // Fallback to unexpanded path
	}
	return filepath.Join(homeDir, ".vantage", "settings.json")
}

// LoadSettings loads settings from ~/.vantage/settings.json
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(GetSettingsFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	// Expand paths that start with ~
	settings.IconCachePath = ExpandPath(settings.IconCachePath)
	settings.PreferencesPath = ExpandPath(settings.PreferencesPath)
	settings.TrashPath = ExpandPath(settings.TrashPath)

	return &settings, nil
}

// ExpandPath expands ~ to home directory in paths
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path // Return as-is if we can't get home dir
		}
		if len(path) == 1 {
			return homeDir
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
