// Package logger is a small structured logging facade. Components log
// through a LogWrapper that carries fields and an error, and a LogFunc sink
// decides where entries go.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Level type
type Level uint32

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel Level = iota
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel level. General operational entries about connections.
	InfoLevel
	// DebugLevel level. Protocol level detail.
	DebugLevel
	// TraceLevel level. Every message sent and received.
	TraceLevel
)

// LevelMap maps levels to their names
var LevelMap = map[Level]string{
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}

func (l Level) String() string {
	if name, ok := LevelMap[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", uint32(l))
}

// ParseLevel parses a level name
func ParseLevel(name string) (Level, error) {
	for level, n := range LevelMap {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return level, nil
		}
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", name)
}

// LogPayload is a single log entry
type LogPayload struct {
	Level   Level
	Fields  map[string]interface{}
	Error   error
	Message string
}

// LogFunc receives every log entry
type LogFunc func(payload LogPayload)

// NoopLogFunc discards entries
func NoopLogFunc(payload LogPayload) {}

// NewNoopLogger returns a wrapper that discards entries
func NewNoopLogger() *LogWrapper {
	return NewLogWrapper(NoopLogFunc, nil)
}

// NewSimpleLogFunc prints entries at or above level to stdout as sorted
// key=value pairs
func NewSimpleLogFunc(level Level) LogFunc {
	return NewWriterLogFunc(os.Stdout, level)
}

// NewWriterLogFunc prints entries at or above level to w as sorted
// key=value pairs
func NewWriterLogFunc(w io.Writer, level Level) LogFunc {
	return func(payload LogPayload) {
		if level < payload.Level {
			return
		}

		m := map[string]interface{}{}
		for k, v := range payload.Fields {
			m[k] = v
		}

		m["msg"] = payload.Message
		m["level"] = payload.Level.String()
		if payload.Error != nil {
			m["error"] = payload.Error.Error()
		}

		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%q", k, fmt.Sprint(m[k])))
		}

		fmt.Fprintln(w, strings.Join(pairs, " "))
	}
}

// LogWrapper builds entries. WithField and WithError return copies so a
// wrapper can be shared by goroutines.
type LogWrapper struct {
	LogFunc LogFunc
	Fields  map[string]interface{}
	Error   error
}

// NewLogWrapper returns a new log wrapper
func NewLogWrapper(logFunc LogFunc, fields map[string]interface{}) *LogWrapper {
	if logFunc == nil {
		logFunc = NoopLogFunc
	}

	l := &LogWrapper{
		LogFunc: logFunc,
		Fields:  map[string]interface{}{},
	}
	for k, v := range fields {
		l.Fields[k] = v
	}
	return l
}

func (l *LogWrapper) clone() *LogWrapper {
	c := NewLogWrapper(l.LogFunc, l.Fields)
	c.Error = l.Error
	return c
}

// WithError returns a copy carrying err
func (l *LogWrapper) WithError(err error) *LogWrapper {
	c := l.clone()
	c.Error = err
	return c
}

// WithField returns a copy carrying the field
func (l *LogWrapper) WithField(key string, value interface{}) *LogWrapper {
	c := l.clone()
	c.Fields[key] = value
	return c
}

func (l *LogWrapper) log(level Level, format string, v ...interface{}) {
	l.LogFunc(LogPayload{
		Level:   level,
		Fields:  l.Fields,
		Error:   l.Error,
		Message: fmt.Sprintf(format, v...),
	})
}

func (l *LogWrapper) Tracef(format string, v ...interface{}) {
	l.log(TraceLevel, format, v...)
}

func (l *LogWrapper) Debugf(format string, v ...interface{}) {
	l.log(DebugLevel, format, v...)
}

func (l *LogWrapper) Infof(format string, v ...interface{}) {
	l.log(InfoLevel, format, v...)
}

func (l *LogWrapper) Warnf(format string, v ...interface{}) {
	l.log(WarnLevel, format, v...)
}

func (l *LogWrapper) Errorf(format string, v ...interface{}) {
	l.log(ErrorLevel, format, v...)
}
