package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/pashinov/nexus/internal/adapter/cache"
	oauthadapter "github.com/pashinov/nexus/internal/adapter/oauth"
	"github.com/pashinov/nexus/internal/config"
	httptransport "github.com/pashinov/nexus/internal/http"
	"github.com/pashinov/nexus/internal/http/handler"
	httpmiddleware "github.com/pashinov/nexus/internal/http/middleware"
	"github.com/pashinov/nexus/internal/jwt"
	apimiddleware "github.com/pashinov/nexus/internal/middleware"
	"github.com/pashinov/nexus/internal/repository"
	"github.com/pashinov/nexus/internal/server"
	authservice "github.com/pashinov/nexus/internal/service/auth"
	"github.com/pashinov/nexus/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newSecrets,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newStateStore,
			newProviderClient,
			newRateLimiter,
			newTokenGenerator,
			newStateManager,
			newRevocationList,
			newAuthService,
			handler.NewAuthHandler,
			handler.NewUserHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newSecrets(lc fx.Lifecycle) (*config.Secrets, error) {
	secrets, err := config.LoadSecrets()
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			secrets.Scrub()
			return nil
		},
	})
	return secrets, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool, node *snowflake.Node) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool, node)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newStateStore(client redis.UniversalClient) repository.StateStore {
	return cacheadapter.NewRedisStore(client)
}

func newProviderClient(cfg config.Config, secrets *config.Secrets) oauthadapter.ProviderClient {
	return oauthadapter.NewHTTPProviderClient(nil, cfg.OAuth, secrets)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newTokenGenerator(cfg config.Config, secrets *config.Secrets) *jwt.Generator {
	return jwt.NewGenerator(secrets.JWTSecret, cfg.AccessTokenTTL)
}

func newStateManager(store repository.StateStore, cfg config.Config) *authservice.StateManager {
	return authservice.NewStateManager(store, cfg.StateTTL)
}

func newRevocationList(store repository.StateStore) *authservice.RevocationList {
	return authservice.NewRevocationList(store)
}

func newAuthService(
	states *authservice.StateManager,
	revocations *authservice.RevocationList,
	provider oauthadapter.ProviderClient,
	users repository.UserRepository,
	tokens *jwt.Generator,
	cfg config.Config,
	secrets *config.Secrets,
	logger *zap.Logger,
) *authservice.Service {
	return authservice.NewService(states, revocations, provider, users, tokens, cfg.OAuth, secrets, logger)
}

func newAuthMiddleware(tokens *jwt.Generator, revocations *authservice.RevocationList, logger *zap.Logger) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Tokens: tokens, Revocations: revocations, Logger: logger}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
