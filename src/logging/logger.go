package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level represents severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var currentLevel int32 = int32(LevelInfo)

var baseLogger = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)

// ParseLevel maps a level name (debug|info|warn|error) to a Level.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// SetLevel parses and sets the global log level. Unknown names leave the level unchanged
// and report false.
func SetLevel(s string) bool {
	l, ok := ParseLevel(s)
	if !ok {
		return false
	}
	atomic.StoreInt32(&currentLevel, int32(l))
	return true
}

// GetLevel returns the current global log level.
func GetLevel() Level { return Level(atomic.LoadInt32(&currentLevel)) }

// SetOutput redirects log output (stderr by default).
func SetOutput(w io.Writer) { baseLogger.SetOutput(w) }

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func logf(l Level, format string, args ...interface{}) {
	if GetLevel() > l {
		return
	}
	// Autoscaler lines carry literal '%' (cpu: 42%/50%), so only format when args are given.
	if len(args) == 0 {
		baseLogger.Printf("[%s] %s", l, format)
		return
	}
	baseLogger.Printf("[%s] %s", l, fmt.Sprintf(format, args...))
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs the duration of a phase at debug level. Use with defer.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
