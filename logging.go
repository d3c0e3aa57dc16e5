package main

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging points logrus at a rotated file. stdout belongs to the status
// line and the host may surface stderr, so when the log directory cannot be
// created everything is discarded instead.
func setupLogging(cfg *Config) io.Closer {
	log.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.WarnLevel
	}
	if os.Getenv("STATUSLINE_DEBUG") == "1" {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	path := cfg.logFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.SetOutput(io.Discard)
		return nopCloser{}
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 2,
	}
	log.SetOutput(lj)
	return lj
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
