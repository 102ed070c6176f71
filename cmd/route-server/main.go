package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/signalsfoundry/geospatial-navigator/internal/logging"
	"github.com/signalsfoundry/geospatial-navigator/internal/observability"
	"github.com/signalsfoundry/geospatial-navigator/internal/routeserver"
)

// Config holds the route server's runtime options.
type Config struct {
	ListenAddress string
	DatabasePath  string
	SeedPath      string
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.ListenAddress, "addr", ":8080", "HTTP address the routing service listens on")
	flag.StringVar(&cfg.DatabasePath, "db", "routes.db", "sqlite database path (\":memory:\" for ephemeral)")
	flag.StringVar(&cfg.SeedPath, "seed", "configs/campus.json", "JSON file used to seed places and paths (empty to skip)")
	flag.Parse()

	log := logging.NewFromEnv()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Warn(ctx, "tracing disabled", logging.Err(err))
	} else {
		defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
	}

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(ctx, "failed to listen", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}
	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "route server failed", logging.Err(err))
		os.Exit(1)
	}
}

// run serves until ctx is cancelled.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	store, err := routeserver.OpenStore(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.SeedPath != "" {
		seed, err := routeserver.LoadSeedFile(cfg.SeedPath)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, store); err != nil {
			return err
		}
		log.Info(ctx, "seeded route store",
			logging.String("path", cfg.SeedPath),
			logging.Int("places", len(seed.Places)),
		)
	}

	srv, err := routeserver.NewServer(store, log)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting routing service", logging.String("addr", lis.Addr().String()))
		errCh <- httpSrv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down routing service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
