package models

// BusConfig identifies the telephony service on the session bus.
type BusConfig struct {
	Name          string `yaml:"name"`           // well-known bus name
	ManagerPath   string `yaml:"manager_path"`   // ObjectManager object path
	CallInterface string `yaml:"call_interface"` // per-call interface
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Settings represents global application settings.
// This corresponds to ~/.callpopup/settings.yaml.
type Settings struct {
	Version       int                 `yaml:"version"`
	Bus           BusConfig           `yaml:"bus"`
	TickSeconds   int                 `yaml:"tick_seconds"` // call duration refresh interval
	Notifications NotificationsConfig `yaml:"notifications"`
}

// NewSettings creates settings with default values for the PipeWire
// telephony service.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Bus: BusConfig{
			Name:          "org.pipewire.Telephony",
			ManagerPath:   "/org/pipewire/Telephony/ag1",
			CallInterface: "org.pipewire.Telephony.Call1",
		},
		TickSeconds: 1,
		Notifications: NotificationsConfig{
			Enabled: true,
		},
	}
}

// Normalize clamps out-of-range values back to their defaults.
func (s *Settings) Normalize() {
	def := NewSettings()
	if s.TickSeconds <= 0 {
		s.TickSeconds = def.TickSeconds
	}
	if s.Bus.Name == "" {
		s.Bus.Name = def.Bus.Name
	}
	if s.Bus.ManagerPath == "" {
		s.Bus.ManagerPath = def.Bus.ManagerPath
	}
	if s.Bus.CallInterface == "" {
		s.Bus.CallInterface = def.Bus.CallInterface
	}
}
