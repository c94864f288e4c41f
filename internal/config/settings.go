package config

import (
	"github.com/rs/zerolog/log"

	"github.com/arcceus/phonecall-popup/internal/models"
)

// LoadSettings loads the global settings from ~/.callpopup/settings.yaml.
// On first run the defaults are written back so the file is there to
// edit. Loaded settings are normalized so missing or invalid fields fall
// back to defaults.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}

	if !fileExists(path) {
		settings := models.NewSettings()
		// A read-only home shouldn't stop the app; the defaults work
		// without the file.
		if err := SaveSettings(settings); err != nil {
			log.Warn().Err(err).Msg("could not write default settings")
		}
		return settings, nil
	}

	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	settings.Normalize()
	return settings, nil
}

// SaveSettings saves the global settings to ~/.callpopup/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}
