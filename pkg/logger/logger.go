// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFormat represents the logging format.
type LogFormat string

const (
	// FormatConsole indicates human-readable console format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON LogFormat = "JSON"
)

var (
	initOnce    sync.Once
	initialized bool
)

// ParseLevel converts a level name to a zapcore.Level.
// The second return value is false for names it does not recognize.
func ParseLevel(level string) (zapcore.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel, true
	case "INFO", "PRODUCTION":
		return zapcore.InfoLevel, true
	case "WARN", "WARNING":
		return zapcore.WarnLevel, true
	case "ERROR":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// ParseFormat returns the matching LogFormat, or false.
func ParseFormat(format string) (LogFormat, bool) {
	switch LogFormat(strings.ToUpper(strings.TrimSpace(format))) {
	case FormatConsole:
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return FormatConsole, false
	}
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a zap logger writing to stdout. Unknown levels log at INFO.
func New(level string, format LogFormat) *zap.Logger {
	zapLevel, _ := ParseLevel(level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(zapLevel))

	return zap.New(core, zap.AddCaller())
}

// Initialize replaces the zap globals with a logger built from level and format.
// Only the first call has an effect.
func Initialize(level string, format LogFormat) {
	initOnce.Do(func() {
		log := New(level, format)
		zap.ReplaceGlobals(log)
		initialized = true

		log.Debug("Logger initialized",
			zap.String("level", level),
			zap.String("format", string(format)))
	})
}

// For creates a named logger for a specific component.
// Before Initialize it falls back to an INFO console logger.
func For(component string) *zap.SugaredLogger {
	if !initialized {
		Initialize("INFO", FormatConsole)
	}

	return zap.S().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}
