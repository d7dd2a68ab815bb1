// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package log provides the daemon's global logger: a thin wrapper over
// logrus that mirrors the teacher's package-level Info/Warn/Error style so
// call sites never import logrus directly.
package log

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/faradayio/falconeri/pkg/logger/conf"
)

type Fields map[string]interface{}

var globalLogger = logrus.New()

func init() {
	InitGlobalLogger(conf.DefaultConfig())
}

// InitGlobalLogger (re)configures the global logger's level and formatter.
func InitGlobalLogger(cfg *conf.LogConfig) {
	globalLogger.SetOutput(os.Stderr)
	globalLogger.SetLevel(toLogrusLevel(cfg.Level))
	if cfg.JSON {
		globalLogger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		globalLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func toLogrusLevel(level conf.Level) logrus.Level {
	switch level {
	case conf.FatalLevel:
		return logrus.FatalLevel
	case conf.ErrorLevel:
		return logrus.ErrorLevel
	case conf.WarnLevel:
		return logrus.WarnLevel
	case conf.DebugLevel:
		return logrus.DebugLevel
	case conf.TraceLevel:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// GlobalLogger returns the underlying logrus logger for callers that need
// WithFields/WithContext chaining.
func GlobalLogger() *logrus.Logger {
	return globalLogger
}

func WithFields(fields Fields) *logrus.Entry {
	return globalLogger.WithFields(logrus.Fields(fields))
}

func Info(args ...interface{})            { globalLogger.Info(args...) }
func Infof(format string, args ...interface{})  { globalLogger.Infof(format, args...) }
func Debug(args ...interface{})           { globalLogger.Debug(args...) }
func Debugf(format string, args ...interface{}) { globalLogger.Debugf(format, args...) }
func Warn(args ...interface{})            { globalLogger.Warn(args...) }
func Warnf(format string, args ...interface{})  { globalLogger.Warnf(format, args...) }
func Error(args ...interface{})           { globalLogger.Error(args...) }
func Errorf(format string, args ...interface{}) { globalLogger.Errorf(format, args...) }
func Fatal(args ...interface{})           { globalLogger.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { globalLogger.Fatalf(format, args...) }
