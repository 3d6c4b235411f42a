package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/wolfeidau/statuspage/internal/auth"
	"github.com/wolfeidau/statuspage/internal/client"
	httpmiddleware "github.com/wolfeidau/statuspage/internal/http"
	"github.com/wolfeidau/statuspage/internal/logger"
	"github.com/wolfeidau/statuspage/internal/metrics"
	"github.com/wolfeidau/statuspage/internal/server"
	"github.com/wolfeidau/statuspage/internal/store"
	memorystore "github.com/wolfeidau/statuspage/internal/store/memory"
	postgresstore "github.com/wolfeidau/statuspage/internal/store/postgres"
	"github.com/wolfeidau/statuspage/internal/targets"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:5000" env:"STATUSPAGE_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"STATUSPAGE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"STATUSPAGE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"STATUSPAGE_CORS_ORIGINS"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"STATUSPAGE_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"STATUSPAGE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	Auth       AuthFlags       `embed:"" prefix:"auth-"`
	Prometheus PrometheusFlags `embed:"" prefix:"prometheus-"`
	TargetSync TargetSyncFlags `embed:"" prefix:"target-sync-"`
	RateLimit  RateLimitFlags  `embed:"" prefix:"rate-limit-"`

	InternalToken     string `help:"bearer token required on /api/internal routes" default:"" env:"STATUSPAGE_INTERNAL_TOKEN"`
	TrustProxyHeaders bool   `help:"use X-Forwarded-For / X-Real-IP as the client address (only behind a trusted proxy)" default:"false" env:"STATUSPAGE_TRUST_PROXY_HEADERS"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Transaction Configuration
	MaxTxRetries uint `help:"retries for serialization failures on membership changes" default:"5"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"STATUSPAGE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// AuthFlags selects how bearer tokens are verified.
type AuthFlags struct {
	Provider string `help:"identity provider (oidc or hs256)" default:"oidc" env:"STATUSPAGE_AUTH_PROVIDER" enum:"oidc,hs256"`
	Issuer   string `help:"OIDC issuer URL" default:"" env:"STATUSPAGE_AUTH_ISSUER"`
	Audience string `help:"expected OIDC audience (client id)" default:"" env:"STATUSPAGE_AUTH_AUDIENCE"`
	Secret   string `help:"shared HS256 signing secret" default:"" env:"STATUSPAGE_AUTH_SECRET"`
	CacheDir string `help:"directory for caching discovery and JWKS responses" default:"" env:"STATUSPAGE_AUTH_CACHE_DIR"`
}

func (a *AuthFlags) Validate() error {
	switch a.Provider {
	case "hs256":
		if len(a.Secret) < 32 {
			return errors.New("HS256 secret must be at least 32 bytes (--auth-secret or STATUSPAGE_AUTH_SECRET)")
		}
	default:
		if a.Issuer == "" || a.Audience == "" {
			return errors.New("OIDC issuer and audience are required (--auth-issuer, --auth-audience)")
		}
	}
	return nil
}

type PrometheusFlags struct {
	URL          string        `help:"Prometheus base URL" default:"http://localhost:9090" env:"PROMETHEUS_URL"`
	QueryTimeout time.Duration `help:"per query timeout" default:"5s" env:"STATUSPAGE_PROMETHEUS_QUERY_TIMEOUT"`
}

type TargetSyncFlags struct {
	Enabled  bool          `help:"write a Prometheus file_sd target file in the background" default:"false" env:"STATUSPAGE_TARGET_SYNC_ENABLED"`
	File     string        `help:"target file path, .yml/.yaml writes YAML, anything else JSON" default:"./prometheus/targets/services.json" env:"STATUSPAGE_TARGET_SYNC_FILE"`
	Interval time.Duration `help:"sync interval" default:"30s" env:"STATUSPAGE_TARGET_SYNC_INTERVAL"`
}

type RateLimitFlags struct {
	PerMinute int    `help:"public requests per minute per client IP, 0 disables" default:"120" env:"STATUSPAGE_PUBLIC_RATE_LIMIT"`
	RedisAddr string `help:"Redis address for a shared limiter, in-process when empty" default:"" env:"STATUSPAGE_REDIS_ADDR"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "statuspage-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	var stores store.Stores

	switch c.StoreType {
	case "postgres":
		if err := c.PostgresStore.Validate(); err != nil {
			return err
		}

		var (
			closer interface{ Close() }
			err    error
		)
		stores, closer, err = postgresstore.NewStores(ctx, &postgresstore.StoreConfig{
			Pool: postgresstore.PoolConfig{
				ConnString:      c.PostgresStore.ConnString,
				MaxConns:        c.PostgresStore.MaxConns,
				MinConns:        c.PostgresStore.MinConns,
				MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
				MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
			},
			AutoMigrate:  c.PostgresStore.AutoMigrate,
			MaxTxRetries: c.PostgresStore.MaxTxRetries,
		})
		if err != nil {
			return fmt.Errorf("failed to create postgres stores: %w", err)
		}
		defer closer.Close()

		log.Info().Bool("auto_migrate", c.PostgresStore.AutoMigrate).Msg("Using PostgreSQL stores with shared connection pool")

	default:
		stores = memorystore.NewStores()
		log.Info().Msg("Using in-memory stores")
	}

	verifier, err := c.newVerifier(ctx)
	if err != nil {
		return err
	}

	querier, err := metrics.NewPrometheusQuerier(c.Prometheus.URL, nil)
	if err != nil {
		return err
	}
	bridge := metrics.NewBridge(querier, metrics.WithQueryTimeout(c.Prometheus.QueryTimeout))

	cfg := server.Config{
		Stores:            stores,
		Verifier:          verifier,
		Metrics:           bridge,
		InternalToken:     c.InternalToken,
		TrustProxyHeaders: c.TrustProxyHeaders,
		Logger:            log,
	}

	if c.TargetSync.Enabled {
		syncer, err := targets.NewSyncer(
			targets.StoreSource{Organizations: stores.Organizations, Services: stores.Services},
			targets.Config{File: c.TargetSync.File, Interval: c.TargetSync.Interval},
		)
		if err != nil {
			return fmt.Errorf("failed to create target syncer: %w", err)
		}
		if err := syncer.Start(ctx); err != nil {
			return err
		}
		defer syncer.Stop()

		cfg.Syncer = syncer
		log.Info().Str("file", c.TargetSync.File).Dur("interval", c.TargetSync.Interval).Msg("Prometheus target sync started")
	}

	if c.RateLimit.PerMinute > 0 {
		limiter, err := c.newRateLimiter(ctx)
		if err != nil {
			return err
		}
		defer limiter.Close()
		cfg.RateLimiter = limiter
	}

	if c.InternalToken == "" {
		log.Warn().Msg("No internal token configured, /api/internal is only protected by cross-origin checks")
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	var handler http.Handler = withCORS(c.CORSOrigins, srv.Handler())
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "statuspage-server")
	}

	httpServer := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		if c.Cert != "" && c.Key != "" {
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

func (c *ServerCmd) newVerifier(ctx context.Context) (auth.IdentityVerifier, error) {
	if err := c.Auth.Validate(); err != nil {
		return nil, err
	}

	if c.Auth.Provider == "hs256" {
		return auth.NewHS256Verifier(c.Auth.Secret)
	}

	verifier, err := auth.NewOIDCVerifier(ctx, c.Auth.Issuer, c.Auth.Audience, client.NewCachingHTTPClient(c.Auth.CacheDir))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OIDC verifier: %w", err)
	}
	return verifier, nil
}

func (c *ServerCmd) newRateLimiter(ctx context.Context) (httpmiddleware.RateLimiter, error) {
	if c.RateLimit.RedisAddr == "" {
		return httpmiddleware.NewMemoryRateLimiter(c.RateLimit.PerMinute), nil
	}

	limiter, err := httpmiddleware.NewRedisRateLimiter(ctx, c.RateLimit.RedisAddr, c.RateLimit.PerMinute)
	if err != nil {
		return nil, fmt.Errorf("failed to connect rate limiter to redis: %w", err)
	}
	return limiter, nil
}

// withCORS lets the status page frontend call the API from another origin.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposedHeaders: []string{logger.RequestIDHeader},
	})
	return middleware.Handler(h)
}
