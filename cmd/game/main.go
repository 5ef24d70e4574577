package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/loop"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "birthday: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Stdout belongs to the card, so logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if path := config.GetEnv("BIRTHDAY_LOG", ""); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := config.NewLogger(logOut, "game")

	settings, path, err := config.FromEnv()
	if err != nil {
		return err
	}
	opts := loop.Options{
		Settings: settings,
		Logger:   logger,
	}
	if path != "" {
		w, err := config.WatchFile(path, logger)
		if err != nil {
			logger.Warn("settings will not reload", "path", path, "err", err)
		} else {
			defer w.Close()
			opts.Reload = w.Updates
		}
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("card started", "message", settings.Message)
	if err := loop.Run(ctx, bufio.NewReader(os.Stdin), os.Stdout, opts); err != nil {
		return fmt.Errorf("game error: %w", err)
	}
	logger.Info("card closed")
	return nil
}
