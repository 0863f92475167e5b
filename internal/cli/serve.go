package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fleetmap/internal/api"
	"github.com/matzehuels/fleetmap/pkg/cache"
	"github.com/matzehuels/fleetmap/pkg/config"
	"github.com/matzehuels/fleetmap/pkg/observability"
	"github.com/matzehuels/fleetmap/pkg/pipeline"
	"github.com/matzehuels/fleetmap/pkg/store"
)

// shutdownTimeout bounds how long in-flight runs may take to finish.
const shutdownTimeout = 30 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redis     string
	mongoURI  string
	mongoDB   string
	storeDir  string
	prefix    string
	noCache   bool
	noMetrics bool
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes generation runs over HTTP.

Runs are archived in MongoDB when --mongo is set, in a directory when
--store-dir is set, and in memory otherwise. Settings are read from the
config file, then FLEETMAP_* environment variables, then flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	f.StringVar(&opts.redis, "redis", "", "redis address for the stage cache")
	f.StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for the run archive")
	f.StringVar(&opts.mongoDB, "mongo-db", "", "MongoDB database name (default fleetmap)")
	f.StringVar(&opts.storeDir, "store-dir", "", "directory for the run archive")
	f.StringVar(&opts.prefix, "cache-prefix", envOr("CACHE_PREFIX", ""), "prefix for cache keys when several deployments share one redis")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the stage cache")
	f.BoolVar(&opts.noMetrics, "no-metrics", false, "disable the /metrics endpoint")

	return cmd
}

// serviceSettings layers environment variables and changed flags over the
// config file.
func serviceSettings(cmd *cobra.Command, cfg config.Service, opts *serveOpts) config.Service {
	cfg.Addr = envOr("ADDR", cfg.Addr)
	cfg.RedisAddr = envOr("REDIS_ADDR", cfg.RedisAddr)
	cfg.MongoURI = envOr("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = envOr("MONGO_DB", cfg.MongoDB)

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = opts.addr
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = opts.redis
	}
	if flags.Changed("mongo") {
		cfg.MongoURI = opts.mongoURI
	}
	if flags.Changed("mongo-db") {
		cfg.MongoDB = opts.mongoDB
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultAddr
	}
	return cfg
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	svc := serviceSettings(cmd, cfg.Service, opts)

	stageCache, err := c.newCache(ctx, opts.noCache, svc.RedisAddr)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if opts.prefix != "" {
		keyer = cache.NewScopedKeyer(nil, opts.prefix)
	}
	runner := pipeline.NewRunner(stageCache, keyer, c.Logger)
	defer runner.Close()

	st, err := c.newStore(ctx, svc, opts.storeDir)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := api.New(runner, st, cfg, c.Logger)
	if !opts.noMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewPrometheus(reg)
		if err != nil {
			return err
		}
		observability.SetPipelineHooks(metrics)
		observability.SetCacheHooks(metrics)
		observability.SetHTTPHooks(metrics)
		defer observability.Reset()
		srv.Metrics = metrics.Handler()
	}

	return c.listen(ctx, srv.HTTPServer(svc.Addr))
}

// listen serves until ctx is cancelled, then drains in-flight requests.
func (c *CLI) listen(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", hs.Addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// newStore picks the run archive: MongoDB, then a directory, then memory.
func (c *CLI) newStore(ctx context.Context, svc config.Service, dir string) (store.Store, error) {
	switch {
	case svc.MongoURI != "":
		st, err := store.NewMongoStore(ctx, svc.MongoURI, svc.MongoDB)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using mongo run store", "db", svc.MongoDB)
		return st, nil
	case dir != "":
		st, err := store.NewFileStore(dir)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using file run store", "dir", st.Path())
		return st, nil
	default:
		c.Logger.Info("using in-memory run store")
		return store.NewMemoryStore(), nil
	}
}
