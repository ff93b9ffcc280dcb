// Package logger is the module-wide logging hook. Library code reports
// through the package functions; applications choose the sink with SetLogger.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

var (
	mu      sync.RWMutex
	logFunc LogFunc = func(level LogLevel, msg string, keyvals ...interface{}) {}
	verbose bool
)

// SetLogger sets the global logger function. A nil f is ignored.
func SetLogger(f LogFunc) {
	if f == nil {
		return
	}
	mu.Lock()
	logFunc = f
	mu.Unlock()
}

// SetVerbose controls whether Debug calls flagged as verbose reach the sink.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func current() (LogFunc, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return logFunc, verbose
}

// Debug logs a message at debug level.
// If the last keyvals element is a bool and true, the message is treated as
// verbose and dropped unless SetVerbose(true) was called.
func Debug(msg string, keyvals ...interface{}) {
	f, v := current()
	if len(keyvals) > 0 {
		if b, ok := keyvals[len(keyvals)-1].(bool); ok {
			keyvals = keyvals[:len(keyvals)-1]
			if b && !v {
				return
			}
		}
	}
	f(DebugLevel, msg, keyvals...)
}

// Warn logs a message at warn level
func Warn(msg string, keyvals ...interface{}) {
	f, _ := current()
	f(WarnLevel, msg, keyvals...)
}

// Error logs a message at error level
func Error(msg string, keyvals ...interface{}) {
	f, _ := current()
	f(ErrorLevel, msg, keyvals...)
}

// Writer returns a LogFunc printing "level msg k=v ..." lines to w.
// Debug lines are dropped unless debug is true.
func Writer(w io.Writer, debug bool) LogFunc {
	var wmu sync.Mutex
	return func(level LogLevel, msg string, keyvals ...interface{}) {
		if level == DebugLevel && !debug {
			return
		}
		var sb strings.Builder
		sb.WriteString(string(level))
		sb.WriteByte(' ')
		sb.WriteString(msg)
		for i := 0; i < len(keyvals); i += 2 {
			sb.WriteByte(' ')
			if i+1 < len(keyvals) {
				fmt.Fprintf(&sb, "%v=%v", keyvals[i], keyvals[i+1])
			} else {
				fmt.Fprintf(&sb, "%v", keyvals[i])
			}
		}
		sb.WriteByte('\n')
		wmu.Lock()
		io.WriteString(w, sb.String())
		wmu.Unlock()
	}
}
