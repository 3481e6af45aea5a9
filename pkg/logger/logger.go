// Package logger is the leveled logger shared by the service. It writes
// RFC3339-stamped lines to stdout and filters by a global level set once at
// startup via Init.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu   sync.RWMutex
	out  *log.Logger = log.New(os.Stdout, "", 0)
	min  Level       = LevelInfo
	name             = map[Level]string{
		LevelDebug: "debug",
		LevelInfo:  "info",
		LevelWarn:  "warn",
		LevelError: "error",
		LevelFatal: "fatal",
	}
)

// Init sets the global log level (case-insensitive: debug, info, warn, error,
// fatal). Unknown values fall back to info.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		min = LevelDebug
	case "warn", "warning":
		min = LevelWarn
	case "error":
		min = LevelError
	case "fatal":
		min = LevelFatal
	default:
		min = LevelInfo
	}
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return name[min]
}

func enabled(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= min
}

func emit(l Level, format string, v ...interface{}) {
	if !enabled(l) {
		return
	}
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(name[l]))
	out.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) { emit(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { emit(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { emit(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { emit(LevelError, format, v...) }

// Fatalf logs unconditionally and exits.
func Fatalf(format string, v ...interface{}) {
	prefix := fmt.Sprintf("%s [FATAL] ", time.Now().Format(time.RFC3339))
	out.Printf(prefix+format, v...)
	os.Exit(1)
}
