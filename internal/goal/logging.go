package goal

import (
	"log"
)

// Logger provides structured logging for the goal tree.
// It wraps the standard log package to provide consistent, parseable output.
type Logger struct{}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, category, format string, args ...interface{}) {
	prefix := "[GoalTree][" + level + "][" + category + "] "
	log.Printf(prefix+format, args...)
}

// LogStateTransition logs a change in goal status.
func (l *Logger) LogStateTransition(goalID string, from, to Status, reason string) {
	l.log("INFO", "STATE", "Goal %s transitioned: %s -> %s | Reason: %s", goalID, from, to, reason)
}

// LogError logs errors with operational context.
func (l *Logger) LogError(operation string, err error) {
	l.log("ERROR", "SYSTEM", "Operation '%s' failed | Error: %v", operation, err)
}
