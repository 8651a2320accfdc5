package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "habitflow"
	DefaultKeyringUser = "api-key"
	SessionKeyringUser = "session-token"
	DefaultConfigDir   = "~/.config/habitflow"
	DefaultConfigFile  = "config.yaml"
	DefaultEndpoint    = "~/.config/habitflow/habitflow.db"
	Version            = "v0.2.0"

	// Endpoint schemes
	MemoryEndpoint = "memory:"

	// Token settings
	DefaultTokenIssuer = "habitflow"
	DefaultTokenTTL    = 30 * 24 * time.Hour
	MinAPIKeyLength    = 16

	// Metric defaults
	DefaultCompletionWindowDays = 30
	RecentActivityDays          = 7
	MonthlyActivityMonths       = 12
	UpcomingTaskLimit           = 5
	MaxHeatmapIntensity         = 4

	// Export
	ExportFilePrefix = "habitflow-backup-"
)

// Session States
const (
	StateHabits SessionState = iota
	StateTasks
	StateStats
	StateAddHabit
	StateConfirmDelete
)
