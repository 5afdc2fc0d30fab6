package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel enumerates severity tiers.
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string ("info", "WARN", …) to a level.
func ParseLogLevel(s string) (LogLevel, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range levelNames {
		if n == u {
			return LogLevel(i), nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger writes levelled lines of the form
//
//	[LEVEL] 2006-01-02 15:04:05.000  component: message
//
// The level is read atomically, so filtered-out calls on the kHz sample
// path never take the output lock.
type Logger struct {
	level atomic.Int32

	mu   sync.Mutex // serialises out and file
	out  *log.Logger
	file *os.File
}

var (
	globalLogger *Logger
	logOnce      sync.Once
)

// InitLogger creates the process logger, teeing to logFilePath when set.
// Only the first call has any effect.
func InitLogger(minLevel LogLevel, logFilePath string) *Logger {
	logOnce.Do(func() {
		var f *os.File
		w := io.Writer(os.Stdout)
		if logFilePath != "" {
			var err error
			if f, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] log file %s unavailable: %v\n", logFilePath, err)
				f = nil
			} else {
				w = io.MultiWriter(os.Stdout, f)
			}
		}
		globalLogger = NewLogger(minLevel, w)
		globalLogger.file = f
	})
	return globalLogger
}

// NewLogger builds a standalone logger writing to w.
func NewLogger(minLevel LogLevel, w io.Writer) *Logger {
	l := &Logger{out: log.New(w, "", 0)}
	l.level.Store(int32(minLevel))
	return l
}

// L returns the process logger. Without a prior InitLogger it falls back
// to stdout at DEBUG.
func L() *Logger {
	if globalLogger == nil {
		return InitLogger(DEBUG, "")
	}
	return globalLogger
}

func (l *Logger) SetLevel(lvl LogLevel) { l.level.Store(int32(lvl)) }
func (l *Logger) Level() LogLevel       { return LogLevel(l.level.Load()) }

// Close closes the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func (l *Logger) emit(lvl LogLevel, component, format string, args ...any) {
	if lvl < l.Level() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if component != "" {
		msg = component + ": " + msg
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")

	l.mu.Lock()
	l.out.Printf("[%s] %s  %s", lvl, ts, msg)
	l.mu.Unlock()

	if lvl == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) Debug(f string, a ...any) { l.emit(DEBUG, "", f, a...) }
func (l *Logger) Info(f string, a ...any)  { l.emit(INFO, "", f, a...) }
func (l *Logger) Warn(f string, a ...any)  { l.emit(WARN, "", f, a...) }
func (l *Logger) Error(f string, a ...any) { l.emit(ERROR, "", f, a...) }
func (l *Logger) Fatal(f string, a ...any) { l.emit(FATAL, "", f, a...) }

// Component tags every line with a pipeline stage name. It resolves the
// process logger on each call, so package-level Components declared before
// InitLogger still honour its level and file.
type Component struct {
	name string
	base *Logger // nil means L()
}

// Named returns a Component writing through the process logger.
func Named(name string) Component { return Component{name: name} }

// Named returns a Component writing through l.
func (l *Logger) Named(name string) Component { return Component{name: name, base: l} }

func (c Component) logger() *Logger {
	if c.base != nil {
		return c.base
	}
	return L()
}

func (c Component) Debug(f string, a ...any) { c.logger().emit(DEBUG, c.name, f, a...) }
func (c Component) Info(f string, a ...any)  { c.logger().emit(INFO, c.name, f, a...) }
func (c Component) Warn(f string, a ...any)  { c.logger().emit(WARN, c.name, f, a...) }
func (c Component) Error(f string, a ...any) { c.logger().emit(ERROR, c.name, f, a...) }
func (c Component) Fatal(f string, a ...any) { c.logger().emit(FATAL, c.name, f, a...) }
