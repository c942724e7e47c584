package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/warden/internal/config"
	"github.com/MrSnakeDoc/warden/internal/gate"
	"github.com/MrSnakeDoc/warden/internal/httpserver"
	"github.com/MrSnakeDoc/warden/internal/httpserver/deps"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/redis"
	"github.com/MrSnakeDoc/warden/internal/registry"
	"github.com/MrSnakeDoc/warden/internal/scheduler"
	"github.com/MrSnakeDoc/warden/internal/sources/policyfile"
	redisstore "github.com/MrSnakeDoc/warden/internal/store/redis"
	"github.com/MrSnakeDoc/warden/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	registry    *registry.Registry
	keeper      *gate.Keeper
	admin       *gate.Admin
	runner      *scheduler.Runner
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	store := redisstore.NewStore(redisClient, loggerClient)

	// Register the declared service policies
	reg := registry.New(loggerClient)
	file, err := policyfile.NewLoader(cfg.PolicyFile).Load()
	if err != nil {
		loggerClient.Errorf("Failed to load policy file %s: %v", cfg.PolicyFile, err)
		os.Exit(1)
	}
	policies, err := policyfile.NewMapper().MapPolicies(file)
	if err != nil {
		loggerClient.Errorf("Invalid policy file %s: %v", cfg.PolicyFile, err)
		os.Exit(1)
	}
	for _, pol := range policies {
		reg.Register(pol)
	}
	loggerClient.Info("service policies registered",
		logger.Int("count", reg.Count()))

	// Warm the persisted records for every registered service
	syncer := scheduler.NewRecordSyncer(store, reg, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to sync service records on startup",
			logger.Error(err))
	}

	keeper := gate.NewKeeper(reg, store, cfg.Superusers, loggerClient)
	admin := gate.NewAdmin(reg, store, loggerClient)
	runner := scheduler.NewRunner(reg, store, loggerClient)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:      loggerClient,
		StartTime:   time.Now(),
		Version:     version.Version,
		Commit:      version.Commit,
		BuildDate:   version.BuildDate,
		GoVersion:   version.GoVersion,
		TimeNow:     time.Now,
		RedisClient: redisClient,
		Registry:    reg,
		Records:     store,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		registry:    reg,
		keeper:      keeper,
		admin:       admin,
		runner:      runner,
	}
}

// Keeper exposes the dispatch-time access check for host integrations.
func (a *App) Keeper() *gate.Keeper { return a.keeper }

// Admin exposes the batch enable/disable operations.
func (a *App) Admin() *gate.Admin { return a.admin }

// Scheduler exposes the scheduled-service runner so hosts can add jobs
// before calling Run.
func (a *App) Scheduler() *scheduler.Runner { return a.runner }

// Registry exposes the service policy registry.
func (a *App) Registry() *registry.Registry { return a.registry }

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Warden v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Warden %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the scheduled-service runner
	a.runner.Start(ctx)
	a.logger.Info("scheduled-service runner started")

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Warden stopped cleanly")
	return nil
}
