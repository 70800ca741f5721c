// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package vzlog owns the process-wide logrus logger. Log output goes to a file
// under the vlitz home so it never interleaves with console output.
package vzlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

const LogFileName = "vlitz.log"

var (
	logger  = newDiscardLogger()
	logFile *os.File
	logLock sync.Mutex

	loggedKeys     = make(map[string]struct{})
	loggedKeysLock sync.Mutex
)

type Opts struct {
	LogFile string // empty disables the file sink
	Level   string
	Verbose bool // also mirror to stderr
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Init opens the log file and configures level and sinks. It may be called
// again to reconfigure; the previous file is closed.
func Init(opts Opts) error {
	logLock.Lock()
	defer logLock.Unlock()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	var writers []io.Writer
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
		fd, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", opts.LogFile, err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = fd
		writers = append(writers, fd)
	}
	if opts.Verbose {
		writers = append(writers, os.Stderr)
	}
	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
	logger.SetLevel(level)
	return nil
}

// Close flushes and closes the log file, if any.
func Close() {
	logLock.Lock()
	defer logLock.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger.SetOutput(io.Discard)
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger returns an entry tagged with the given component.
func Logger(component string) *logrus.Entry {
	return logger.WithField("component", component)
}

func shouldLog(key string) bool {
	loggedKeysLock.Lock()
	defer loggedKeysLock.Unlock()
	if _, exists := loggedKeys[key]; exists {
		return false
	}
	loggedKeys[key] = struct{}{}
	return true
}

// LogfOnce logs a warning for key the first time it is seen and drops it after.
func LogfOnce(component string, key string, format string, args ...any) {
	if !shouldLog(key) {
		return
	}
	Logger(component).Warnf(format, args...)
}
