package main

import (
	"os"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/window"
)

func main() {
	logger := config.NewLogger(os.Stderr, "window")

	settings, path, err := config.FromEnv()
	if err != nil {
		logger.Fatal("load settings", "err", err)
	}

	opts := window.Options{Logger: logger}
	if path != "" {
		w, err := config.WatchFile(path, logger)
		if err != nil {
			logger.Warn("settings will not reload", "path", path, "err", err)
		} else {
			defer w.Close()
			opts.Reload = w.Updates
		}
	}

	if err := window.Run(settings, opts); err != nil {
		logger.Fatal("window error", "err", err)
	}
}
