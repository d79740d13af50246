// Command couchjwt-server issues and manages JWTs for CouchDB users over
// HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	couchjwt "github.com/MrEthical07/couchjwt"
	"github.com/MrEthical07/couchjwt/httpapi"
	"github.com/MrEthical07/couchjwt/internal/serverconfig"
	promexport "github.com/MrEthical07/couchjwt/metrics/export/prometheus"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("couchjwt-server", flag.ContinueOnError)
	flags := serverconfig.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if flags.Version {
		fmt.Println(version)
		return 0
	}

	cfg, err := serverconfig.Load(serverconfig.Options{Flags: flags})
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "couchjwt",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
		Output:     os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, cfg serverconfig.Config, logger hclog.Logger) error {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	var client redis.UniversalClient
	if cfg.Throttle.Enabled {
		client, err = throttleClient(cfg, &engineCfg)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	builder := couchjwt.New().WithConfig(engineCfg).WithLogger(logger)
	if client != nil {
		builder = builder.WithRedis(client)
	}

	startCtx, cancel := context.WithTimeout(ctx, serverconfig.StartupTimeout)
	engine, err := builder.BuildContext(startCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("engine close", "error", err)
		}
	}()
	logReport(logger, engine.SecurityReport())

	router, err := httpapi.NewRouter(httpapi.Options{
		Engine:      engine,
		Endpoint:    cfg.Endpoint,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger.Named("http"),
		Debug:       logger.IsDebug(),
	})
	if err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		router.GET(serverconfig.MetricsPath, gin.WrapH(metricsHandler(engine)))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "endpoint", cfg.Endpoint, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// throttleClient connects the login throttle. When the throttle shares the
// session Redis, the session store reuses the same client.
func throttleClient(cfg serverconfig.Config, engineCfg *couchjwt.Config) (redis.UniversalClient, error) {
	raw := cfg.ThrottleRedisURL()
	if raw == "" {
		return nil, errors.New("login throttle enabled without a redis url")
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("throttle redis url: %w", err)
	}
	if cfg.Throttle.RedisURL == "" {
		engineCfg.Session.Redis.URL = ""
	}
	return redis.NewClient(opts), nil
}

func metricsHandler(engine *couchjwt.Engine) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		promexport.NewCollector(engine),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func logReport(logger hclog.Logger, r couchjwt.SecurityReport) {
	logger.Info("security settings",
		"production", r.ProductionMode,
		"algorithm", r.SigningAlgorithm,
		"accepted", r.AcceptedAlgorithms,
		"token_ttl", r.TokenTTL,
		"session_backend", r.SessionBackend,
		"sessionless", r.Sessionless,
		"revocation", r.RevocationEffective,
		"role_refresh", r.RoleRefreshEnabled,
		"role_refresh_best_effort", r.RoleRefreshBestEffort,
		"login_throttle", r.LoginThrottleActive,
		"audit", r.AuditEnabled,
	)
	if !r.RevocationEffective {
		logger.Warn("logout cannot revoke tokens with this session configuration")
	}
}
