package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VoiceChanged is true when any speech default changed.
	VoiceChanged bool
	NewVoice     VoiceConfig

	// BackendChanged is true when the backend URLs or timeout changed.
	// Applying it requires rebuilding the resolver, which the client does
	// only between conversations.
	BackendChanged bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Voice != new.Voice {
		d.VoiceChanged = true
		d.NewVoice = new.Voice
	}

	if old.Backend != new.Backend {
		d.BackendChanged = true
	}

	return d
}
