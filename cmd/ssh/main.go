package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"

	"github.com/tomz197/birthday/internal/config"
	"github.com/tomz197/birthday/internal/draw"
	"github.com/tomz197/birthday/internal/loop"
)

const (
	defaultHost        = "::"
	defaultPort        = "2222"
	defaultHostKeyPath = "/app/keys/host_key"
	defaultMaxSessions = 64
)

func main() {
	logger := config.NewLogger(os.Stderr, "ssh")

	host := config.GetEnv("SSH_HOST", defaultHost)
	port := config.GetEnv("SSH_PORT", defaultPort)
	hostKeyPath := config.GetEnv("SSH_HOST_KEY", defaultHostKeyPath)
	maxSessions := config.GetEnvInt("SSH_MAX_SESSIONS", defaultMaxSessions)
	logger.Info("ssh config", "host", host, "port", port, "hostKey", hostKeyPath, "maxSessions", maxSessions)

	settings, path, err := config.FromEnv()
	if err != nil {
		logger.Fatal("load settings", "err", err)
	}
	hub := newSettingsHub(settings)
	if path != "" {
		w, err := config.WatchFile(path, logger)
		if err != nil {
			logger.Warn("settings will not reload", "path", path, "err", err)
		} else {
			defer w.Close()
			go hub.run(w.Updates)
		}
	}

	cards := newCardHandler(hub, logger, maxSessions)

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(host, port)),
		wish.WithMiddleware(
			cards.middleware,
			activeterm.Middleware(),
			logging.MiddlewareWithLogger(logger),
		),
		// Set TCP_NODELAY so pointer motion is not batched
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}
	if hostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(hostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("create server", "err", err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", "addr", net.JoinHostPort(host, port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server", "sessions", cards.active.Load())
	cards.shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}

// cardHandler runs one independent card per SSH session.
type cardHandler struct {
	root        context.Context // Cancelled on shutdown
	cancelRoot  context.CancelFunc
	hub         *settingsHub
	logger      *log.Logger
	maxSessions int32
	active      atomic.Int32

	mu       sync.Mutex // Guards closing and sessions.Add
	closing  bool
	sessions sync.WaitGroup
}

func newCardHandler(hub *settingsHub, logger *log.Logger, maxSessions int) *cardHandler {
	root, cancel := context.WithCancel(context.Background())
	return &cardHandler{
		root:        root,
		cancelRoot:  cancel,
		hub:         hub,
		logger:      logger,
		maxSessions: int32(maxSessions),
	}
}

// begin registers a session unless shutdown has started.
func (h *cardHandler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.sessions.Add(1)
	return true
}

// shutdown refuses new sessions, ends the running ones and waits for them.
func (h *cardHandler) shutdown() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()
	h.cancelRoot()
	h.sessions.Wait()
}

func (h *cardHandler) middleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}
		if !h.begin() {
			fmt.Fprintln(sess, "The card is closing, please try again later.")
			return
		}
		defer h.sessions.Done()

		if n := h.active.Add(1); h.maxSessions > 0 && n > h.maxSessions {
			h.active.Add(-1)
			fmt.Fprintln(sess, "Too many guests right now, please try again in a moment.")
			h.logger.Warn("session refused", "user", sess.User(), "active", n-1)
			return
		}
		defer h.active.Add(-1)

		ctx, cancel := context.WithCancel(sess.Context())
		defer cancel()
		defer context.AfterFunc(h.root, cancel)()

		logger := h.logger.With("user", sess.User(), "remote", sess.RemoteAddr().String())
		logger.Info("session started", "term", pty.Term, "width", pty.Window.Width, "height", pty.Window.Height)

		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		settings, reload, unsubscribe := h.hub.subscribe()
		defer unsubscribe()

		opts := loop.Options{
			TermSizeFunc: sizeTracker.getSize,
			Settings:     settings,
			Reload:       reload,
			Logger:       logger,
		}
		if err := loop.Run(ctx, bufio.NewReader(sess), sess, opts); err != nil {
			logger.Error("card error", "err", err)
		}

		logger.Info("session ended")
		next(sess)
	}
}

// settingsHub fans reloaded settings out to every running session.
type settingsHub struct {
	mu      sync.Mutex
	current config.Settings
	subs    map[chan config.Settings]struct{}
}

func newSettingsHub(s config.Settings) *settingsHub {
	return &settingsHub{current: s, subs: make(map[chan config.Settings]struct{})}
}

// subscribe returns the current settings and a channel of later ones.
func (h *settingsHub) subscribe() (config.Settings, <-chan config.Settings, func()) {
	ch := make(chan config.Settings, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	current := h.current
	h.mu.Unlock()

	return current, ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *settingsHub) run(updates <-chan config.Settings) {
	for s := range updates {
		h.publish(s)
	}
}

// publish replaces any update a session has not picked up yet.
func (h *settingsHub) publish(s config.Settings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
