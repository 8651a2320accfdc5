package constants

const (
	// DateFormat is the calendar day format used for habit entries (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// MonthFormat labels monthly activity buckets
	MonthFormat = "Jan 2006"

	// DisplayDateFormat is used when printing dates to the terminal
	DisplayDateFormat = "Jan 2, 2006"
)
