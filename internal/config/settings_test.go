package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsWritesDefaultsOnFirstRun(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.Bus.Name != "org.pipewire.Telephony" {
		t.Errorf("Bus.Name = %q, want org.pipewire.Telephony", settings.Bus.Name)
	}

	// First run leaves a settings file behind for the user to edit.
	path, err := GlobalSettingsFile()
	if err != nil {
		t.Fatalf("GlobalSettingsFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("settings file not written on first run: %v", err)
	}
}

func TestLoadSettingsReadsExistingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, GlobalDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "version: 1\ntick_seconds: 5\nbus:\n  name: org.example.Phone\n"
	if err := os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings()
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.TickSeconds != 5 {
		t.Errorf("TickSeconds = %d, want 5", settings.TickSeconds)
	}
	if settings.Bus.Name != "org.example.Phone" {
		t.Errorf("Bus.Name = %q, want org.example.Phone", settings.Bus.Name)
	}
	// Missing fields fall back to defaults through normalization.
	if settings.Bus.ManagerPath == "" {
		t.Error("ManagerPath not defaulted for partial file")
	}
}
