package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Maximum number of items reviewed in one session
	MaxSessionItems int
	// Default hour of day for reminders (0-23)
	DefaultNotificationHour int
	// Whether sarcastic feedback lines accompany each grade
	SarcasmEnabled bool
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		MaxSessionItems:         30,
		DefaultNotificationHour: 9,
		SarcasmEnabled:          true,
	}
}
