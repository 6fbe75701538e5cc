package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/coinbubbles/pkg/canvas"
	"github.com/matzehuels/coinbubbles/pkg/io"
	"github.com/matzehuels/coinbubbles/pkg/observability"
	"github.com/matzehuels/coinbubbles/pkg/server"
)

type serveOpts struct {
	addr    string
	store   string
	state   string
	offline bool
	noCache bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bubble canvas over HTTP and WebSocket",
		Long: `Serve the bubble canvas over HTTP and WebSocket.

Selections are persisted to the size store (--store or [store] dsn) and
announced on the configured notification bus, so several instances sharing
a Redis bus and a database stay in sync.`,
		Example: `  coinbubbles serve --addr :8080
  coinbubbles serve --store sqlite:./sizes.db --offline
  coinbubbles serve --state saved.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides [server] addr)")
	cmd.Flags().StringVar(&opts.store, "store", "", "size store dsn: memory:, sqlite:<path>, mongodb://...")
	cmd.Flags().StringVar(&opts.state, "state", "", "restore the canvas from a saved state file")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "search the built-in coin sample instead of CoinGecko")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the HTTP response cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}

	metrics := &observability.Counters{}
	observability.SetCacheHooks(metrics)
	observability.SetHTTPHooks(metrics)

	dir, closeDir, err := c.newDirectory(ctx, cfg, opts.offline, opts.noCache)
	if err != nil {
		return err
	}
	defer closeDir()

	store, err := c.openStore(ctx, cfg, opts.store)
	if err != nil {
		return err
	}
	defer store.Close()

	bus, err := c.openBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	cv, err := c.loadCanvas(cfg.CanvasOptions(c.Logger), opts.state)
	if err != nil {
		return err
	}

	grow := cfg.Canvas.GrowIncrement
	if grow == 0 {
		grow = server.NoGrowth
	}
	srv := server.New(server.Options{
		Canvas:            cv,
		Directory:         dir,
		Store:             store,
		Bus:               bus,
		GrowIncrement:     grow,
		PersistTimeout:    cfg.Server.PersistTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Metrics:           metrics,
		Logger:            c.Logger.WithPrefix("server"),
	})

	printInfo("Serving on %s", StyleLink.Render(serverURL(cfg.Server.Addr)))
	printKeyValue("store", storeKind(cfg.Store.DSN, opts.store))
	printKeyValue("bus", cfg.Notify.Backend)
	printKeyValue("directory", directoryKind(cfg.Directory.Source, opts.offline))

	err = srv.ListenAndServe(ctx, cfg.Server.Addr)
	if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	printSuccess("Server stopped")
	return nil
}

// loadCanvas builds a canvas, restoring it from statePath when given.
func (c *CLI) loadCanvas(opts canvas.Options, statePath string) (*canvas.Canvas, error) {
	if statePath == "" {
		return canvas.New(opts), nil
	}
	st, err := io.ImportState(statePath)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("restored canvas", "path", statePath, "bubbles", len(st.Bubbles))
	return st.Canvas(opts), nil
}

// serverURL turns a listen address into a browsable URL.
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func storeKind(configured, flag string) string {
	dsn := configured
	if flag != "" {
		dsn = flag
	}
	switch {
	case dsn == "" || dsn == "memory:":
		return "memory"
	case strings.HasPrefix(dsn, "sqlite:"):
		return "sqlite"
	default:
		return "mongodb"
	}
}

func directoryKind(source string, offline bool) string {
	if offline {
		return "static"
	}
	return source
}
