package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/directory"
	"github.com/matzehuels/coinbubbles/pkg/errors"
	"github.com/matzehuels/coinbubbles/pkg/notify"
	"github.com/matzehuels/coinbubbles/pkg/observability"
	"github.com/matzehuels/coinbubbles/pkg/sizes"
)

const (
	defaultPersistTimeout    = 5 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second

	opQueue      = 64
	persistQueue = 256
)

// NoGrowth as Options.GrowIncrement keeps re-selected bubbles at their size.
const NoGrowth = -1.0

var errStopped = errors.New(errors.ErrCodeInternal, "server stopped")

// Options configures a [Server]. Only Canvas is commonly set; the rest
// default to sensible values.
type Options struct {
	// Canvas is the canvas to serve. A new empty canvas is used when nil.
	Canvas *canvas.Canvas
	// Directory answers coin searches. Defaults to the static sample.
	Directory directory.Directory
	// Store persists sizes. Nil disables persistence.
	Store sizes.Store
	// Bus distributes size changes. Nil disables notifications.
	Bus notify.Bus

	// GrowIncrement is added when an existing bubble is selected again.
	// Zero selects canvas.DefaultGrowIncrement; use NoGrowth to disable
	// growth.
	GrowIncrement float64

	PersistTimeout    time.Duration
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	// AllowedOrigins are origin prefixes accepted for WebSocket upgrades.
	// Empty allows same-host and localhost origins.
	AllowedOrigins []string

	// Metrics receives server events and is served at /api/stats. When nil
	// events go to the globally registered observability hooks.
	Metrics *observability.Counters

	Logger *log.Logger
}

// Server serves one canvas.
type Server struct {
	canvas    *canvas.Canvas
	directory directory.Directory
	store     sizes.Store
	bus       notify.Bus
	origin    string
	grow      float64
	opts      Options
	hooks     observability.ServerHooks
	logger    *log.Logger

	ops        chan op
	persistQ   chan selection
	register   chan *client
	unregister chan *client
	clients    map[*client]struct{}
	done       chan struct{}
	startOnce  sync.Once
	pending    sync.WaitGroup
}

// op is a unit of work run on the canvas goroutine. apply reports whether
// the canvas changed, which triggers a broadcast.
type op struct {
	apply func(c *canvas.Canvas) (changed bool, err error)
	reply chan result
}

type result struct {
	frame canvas.Frame
	err   error
}

// New creates a server. Call [Server.Start] before serving requests.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Canvas == nil {
		opts.Canvas = canvas.New(canvas.Options{Logger: opts.Logger})
	}
	if opts.Directory == nil {
		opts.Directory = directory.NewStatic(directory.Sample)
	}
	switch {
	case opts.GrowIncrement == 0:
		opts.GrowIncrement = canvas.DefaultGrowIncrement
	case !(opts.GrowIncrement > 0):
		opts.GrowIncrement = 0
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	var hooks observability.ServerHooks = observability.Server()
	if opts.Metrics != nil {
		hooks = opts.Metrics
	}
	return &Server{
		canvas:     opts.Canvas,
		directory:  opts.Directory,
		store:      opts.Store,
		bus:        opts.Bus,
		origin:     uuid.NewString(),
		grow:       opts.GrowIncrement,
		opts:       opts,
		hooks:      hooks,
		logger:     opts.Logger,
		ops:        make(chan op, opQueue),
		persistQ:   make(chan selection, persistQueue),
		register:   make(chan *client),
		unregister: make(chan *client),
		clients:    make(map[*client]struct{}),
		done:       make(chan struct{}),
	}
}

// Origin identifies this instance on the notification bus.
func (s *Server) Origin() string { return s.origin }

// Start launches the canvas goroutine and, when a bus is configured, the
// subscriber. Both stop when ctx is done. Calling Start more than once has
// no further effect.
func (s *Server) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		var events <-chan notify.SizeChanged
		if s.bus != nil {
			if events, err = s.bus.Subscribe(ctx); err != nil {
				close(s.done)
				return
			}
		}
		s.pending.Add(1)
		go s.loop(ctx)
		go s.persistWorker(ctx)
		if events != nil {
			go s.follow(ctx, events)
		}
	})
	return err
}

// Wait blocks until the canvas goroutine has stopped and background
// persistence has finished.
func (s *Server) Wait() {
	<-s.done
	s.pending.Wait()
}

// ListenAndServe starts the server on addr and blocks until ctx is done,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is like [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.Start(ctx); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String(), "origin", s.origin)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	if serveErr := <-errc; serveErr != nil && !stderrors.Is(serveErr, http.ErrServerClosed) && err == nil {
		err = serveErr
	}
	return err
}

func (s *Server) loop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			for c := range s.clients {
				close(c.send)
			}
			s.clients = nil
			s.logger.Debug("canvas loop stopped")
			return

		case c := <-s.register:
			s.clients[c] = struct{}{}
			s.hooks.OnClients(ctx, len(s.clients))
			if msg, err := frameMessage(s.canvas.Frame()); err == nil {
				c.send <- msg
			}
			s.logger.Debug("client registered", "client", c.id, "clients", len(s.clients))

		case c := <-s.unregister:
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				s.hooks.OnClients(ctx, len(s.clients))
				s.logger.Debug("client unregistered", "client", c.id, "clients", len(s.clients))
			}

		case o := <-s.ops:
			start := time.Now()
			changed, err := o.apply(s.canvas)
			f := s.canvas.Frame()
			stats := s.canvas.LastStats()
			s.hooks.OnApply(ctx, len(f.Bubbles), stats.Passes, stats.Converged, time.Since(start), err)
			o.reply <- result{frame: f, err: err}
			if changed && err == nil {
				s.broadcast(ctx, f)
			}
		}
	}
}

// broadcast queues f for every client. Clients whose buffer is full are
// dropped.
func (s *Server) broadcast(ctx context.Context, f canvas.Frame) {
	if len(s.clients) == 0 {
		return
	}
	msg, err := frameMessage(f)
	if err != nil {
		s.logger.Error("encode frame", "err", err)
		return
	}
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("dropping slow client", "client", c.id)
			delete(s.clients, c)
			close(c.send)
			s.hooks.OnClients(ctx, len(s.clients))
		}
	}
	s.hooks.OnBroadcast(ctx, len(s.clients), len(msg))
}

// do runs fn on the canvas goroutine and returns the frame after it.
func (s *Server) do(ctx context.Context, fn func(c *canvas.Canvas) (bool, error)) (canvas.Frame, error) {
	o := op{apply: fn, reply: make(chan result, 1)}
	select {
	case s.ops <- o:
	case <-s.done:
		return canvas.Frame{}, errStopped
	case <-ctx.Done():
		return canvas.Frame{}, ctx.Err()
	}
	select {
	case r := <-o.reply:
		return r.frame, r.err
	case <-s.done:
		return canvas.Frame{}, errStopped
	case <-ctx.Done():
		return canvas.Frame{}, ctx.Err()
	}
}

// follow applies size events published by other instances.
func (s *Server) follow(ctx context.Context, events <-chan notify.SizeChanged) {
	for ev := range events {
		if ev.Origin == s.origin {
			continue
		}
		s.logger.Debug("remote size", "id", ev.ID, "size", ev.BaseSize, "origin", ev.Origin)
		if _, err := s.do(ctx, applySize(ev.ID, ev.BaseSize)); err != nil {
			s.logger.Debug("size event not applied", "id", ev.ID, "err", err)
			return
		}
	}
}

func applySize(id string, size float64) func(c *canvas.Canvas) (bool, error) {
	return func(c *canvas.Canvas) (bool, error) {
		b, ok := c.Bubble(id)
		if !ok || b.BaseSize == size {
			return false, nil
		}
		c.ApplySize(id, size)
		return true, nil
	}
}
