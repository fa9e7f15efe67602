package activitylog

import "unicode/utf8"

const (
	// DefaultPrefixLength bounds how much of the trigger a message quotes.
	DefaultPrefixLength = 30
	// Ellipsis marks a truncated trigger.
	Ellipsis = "..."
)

// Truncate shortens s to at most n runes, appending Ellipsis when anything
// was cut. Strings that fit are returned unchanged.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + Ellipsis
		}
		i++
	}
	return s
}

// ProcessingMessage is the line attributed to an agent on every tick.
func ProcessingMessage(trigger string, prefix int) string {
	return "Processing task: " + Truncate(trigger, prefix)
}

// CompletedMessage is the system line recorded when a run finishes.
func CompletedMessage(trigger string, prefix int) string {
	return "Workflow completed: " + Truncate(trigger, prefix)
}
