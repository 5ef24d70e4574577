// Package config holds the card settings and shared environment helpers.
package config

import (
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
)

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt is GetEnv for integers. Unparsable values fall back.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// NewLogger returns a logger writing to w at the level named by LOG_LEVEL.
func NewLogger(w io.Writer, prefix string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if level, err := log.ParseLevel(GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// FromEnv loads the settings file named by BIRTHDAY_CONFIG, or the defaults
// when it is unset. The returned path is empty when no file is in use.
func FromEnv() (Settings, string, error) {
	path := GetEnv("BIRTHDAY_CONFIG", "")
	if path == "" {
		return Default(), "", nil
	}
	s, err := Load(path)
	if err != nil {
		return Settings{}, "", err
	}
	return s, path, nil
}
