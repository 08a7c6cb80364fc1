package helpers

import (
	"fmt"
	"log"
	"strings"
)

// Logger provides simplified logging with prefixes
type Logger struct {
	prefix string
}

// NewLogger creates a new logger with a prefix
func NewLogger(prefix string) *Logger {
	return &Logger{prefix: "[" + prefix + "]"}
}

// Info logs an info message followed by key/value pairs
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.output("INFO", msg, nil, kv)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.output("WARN", msg, nil, kv)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, kv ...interface{}) {
	l.output("ERROR", msg, err, kv)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.output("DEBUG", msg, nil, kv)
}

func (l *Logger) output(level, msg string, err error, kv []interface{}) {
	log.Print(l.format(level, msg, err, kv))
}

func (l *Logger) format(level, msg string, err error, kv []interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", l.prefix, level, msg)
	if err != nil {
		fmt.Fprintf(&b, " - %v", err)
	}
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(&b, " %v", kv[i])
		}
	}
	return b.String()
}
