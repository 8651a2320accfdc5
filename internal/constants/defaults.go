package constants

const (
	// Habit defaults applied when a create request leaves them empty
	DefaultHabitFrequency = "daily"
	DefaultHabitColor     = "emerald"
	DefaultTargetCount    = 1

	// Task defaults
	DefaultTaskPriority = "medium"

	// Entry defaults
	DefaultEntryCount = 1

	// Log defaults
	LogDirName  = "logs"
	LogFileName = "habitflow.log"
)
