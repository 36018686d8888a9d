package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// UserSettings represents the user's persisted preferences.
type UserSettings struct {
	AudioDir     string `json:"audioDir"`
	KeepScreenOn bool   `json:"keepScreenOn"`
	Privileged   bool   `json:"privileged"`
}

// settingsFilePath returns the path to the settings file.
func settingsFilePath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".radisnap-settings.json")
}

// LoadSettings loads the user settings, falling back to environment-derived
// defaults when no settings file exists yet.
func LoadSettings() (*UserSettings, error) {
	path := settingsFilePath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &UserSettings{
			AudioDir:   GetAudioDir(),
			Privileged: IsPrivilegedUser(),
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings writes the user settings to the settings file.
func SaveSettings(settings *UserSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(settingsFilePath(), data, 0644)
}
