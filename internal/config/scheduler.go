package config

// SchedulerConfig controls the background ledger reconciler.
type SchedulerConfig struct {
	Enabled bool
	// Cron is a six-field (seconds first) cron expression.
	Cron string
}

func LoadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: envBool("RECONCILE_ENABLED", true),
		Cron:    envStr("RECONCILE_CRON", "0 0 3 * * *"),
	}
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  envStr("LOG_LEVEL", "info"),
		Format: envStr("LOG_FORMAT", "text"),
	}
}
