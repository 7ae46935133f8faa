package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/storefront/db"
	"github.com/dmitrymomot/storefront/modules/storefront"
	"github.com/dmitrymomot/storefront/pkg/cart"
	"github.com/dmitrymomot/storefront/pkg/clientip"
	"github.com/dmitrymomot/storefront/pkg/config"
	"github.com/dmitrymomot/storefront/pkg/cookie"
	"github.com/dmitrymomot/storefront/pkg/httpserver"
	"github.com/dmitrymomot/storefront/pkg/keylock"
	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/nonce"
	"github.com/dmitrymomot/storefront/pkg/pg"
	"github.com/dmitrymomot/storefront/pkg/ratelimiter"
	"github.com/dmitrymomot/storefront/pkg/redis"
	"github.com/dmitrymomot/storefront/pkg/requestid"
	"github.com/dmitrymomot/storefront/pkg/session"
	"github.com/dmitrymomot/storefront/pkg/token"
	"github.com/dmitrymomot/storefront/pkg/transfer"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)

	log := logger.NewFromConfig(logCfg, logger.WithContextExtractors(requestid.LoggerExtractor()))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("storefront stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		sessionCfg  session.Config
		lockCfg     keylock.Config
		tokenCfg    token.Config
		nonceCfg    nonce.Config
		cookieCfg   cookie.Config
		transferCfg transfer.Config
		httpCfg     httpserver.Config
		apiCfg      storefront.Config
		limitCfg    ratelimiter.Config
		ipCfg       clientip.Config
	)
	for _, err := range []error{
		config.Load(&sessionCfg),
		config.Load(&lockCfg),
		config.Load(&tokenCfg),
		config.Load(&nonceCfg),
		config.Load(&cookieCfg),
		config.Load(&transferCfg),
		config.Load(&httpCfg),
		config.Load(&apiCfg),
		config.Load(&limitCfg),
		config.Load(&ipCfg),
	} {
		if err != nil {
			return err
		}
	}

	var stopHooks []httpserver.Option
	checks := make(map[string]httpserver.Check)

	var redisClient *goredis.Client
	if sessionCfg.Store == session.StoreRedis || lockCfg.Backend == keylock.BackendRedis {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		redisClient = client
		checks["redis"] = redis.Healthcheck(client)
		stopHooks = append(stopHooks, httpserver.WithStopHook("redis", func(context.Context) error {
			return client.Close()
		}))
	}

	store, err := newStore(ctx, sessionCfg, redisClient, checks, &stopHooks, log)
	if err != nil {
		return err
	}

	locker, err := newLocker(lockCfg, redisClient, log)
	if err != nil {
		return err
	}
	queue := keylock.NewFromConfig(lockCfg, locker, keylock.WithLogger(log))

	codec, err := token.NewFromConfig(tokenCfg)
	if err != nil {
		return err
	}
	signer, err := nonce.NewFromConfig(nonceCfg)
	if err != nil {
		return err
	}
	jar, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return err
	}

	sessions := session.NewFromConfig(sessionCfg, codec,
		session.WithStore(store),
		session.WithQueue(queue),
		session.WithLogger(log),
	)
	stopHooks = append(stopHooks, httpserver.WithStopHook("sessions", func(context.Context) error {
		return sessions.Close()
	}))

	transferOpts := []transfer.Option{transfer.WithLogger(log)}
	if transferCfg.ReplayGuard {
		// Nonces are single-use across instances only with a shared guard.
		var guard transfer.ReplayGuard = transfer.NewMemoryReplayGuard(transferCfg.ReplayGuardCapacity)
		if redisClient != nil {
			guard = transfer.NewRedisReplayGuard(redisClient, "")
		}
		transferOpts = append(transferOpts, transfer.WithReplayGuard(guard))
	}
	handshake := transfer.NewFromConfig(transferCfg, codec, signer, store,
		session.NewCookieTransport(jar, sessionCfg.CookieName, sessionCfg.SecureCookies),
		transferOpts...,
	)

	limiter, err := newTransferLimiter(limitCfg, redisClient)
	if err != nil {
		return err
	}

	router := storefront.Router(storefront.RouterOptions{
		Sessions:        sessions,
		Carts:           cart.NewService(store, queue, cart.WithLogger(log)),
		Transfer:        handshake,
		TransferLimiter: limiter,
		ClientIP:        clientip.NewFromConfig(ipCfg),
		Health:          checks,
		AllowedOrigins:  apiCfg.AllowedOrigins,
		Logger:          log,
	})

	srv := httpserver.NewFromConfig(httpCfg, append(stopHooks, httpserver.WithLogger(log))...)
	return srv.Run(ctx, router)
}

func newStore(ctx context.Context, cfg session.Config, client *goredis.Client, checks map[string]httpserver.Check, hooks *[]httpserver.Option, log *slog.Logger) (session.Store, error) {
	switch strings.ToLower(cfg.Store) {
	case session.StoreMemory, "":
		store := session.NewMemoryStore(cfg.CleanupInterval)
		*hooks = append(*hooks, httpserver.WithStopHook("memory store", func(context.Context) error {
			return store.Close()
		}))
		return store, nil

	case session.StoreRedis:
		return session.NewRedisStore(client), nil

	case session.StorePostgres:
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if pgCfg.MigrationsPath != "" {
			err = pg.Migrate(ctx, pool, pgCfg, log)
		} else {
			err = pg.MigrateFS(ctx, pool, db.Migrations, pgCfg, log)
		}
		if err != nil {
			pool.Close()
			return nil, err
		}

		store := session.NewPostgresStore(pool)
		go session.RunCleanup(ctx, store, cfg.CleanupInterval, log)

		checks["postgres"] = pg.Healthcheck(pool)
		*hooks = append(*hooks, httpserver.WithStopHook("postgres", func(context.Context) error {
			pool.Close()
			return nil
		}))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

func newLocker(cfg keylock.Config, client *goredis.Client, log *slog.Logger) (keylock.Locker, error) {
	switch strings.ToLower(cfg.Backend) {
	case keylock.BackendMemory, "":
		return keylock.NewMemoryLocker(), nil
	case keylock.BackendRedis:
		if client == nil {
			return nil, errors.New("redis lock backend without redis client")
		}
		return keylock.NewRedisLockerFromConfig(client, cfg, keylock.WithRedisLogger(log)), nil
	default:
		return nil, fmt.Errorf("unknown mutation lock backend %q", cfg.Backend)
	}
}

// newTransferLimiter shares buckets through redis when a client is connected.
func newTransferLimiter(cfg ratelimiter.Config, client *goredis.Client) (ratelimiter.Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var store ratelimiter.Store = ratelimiter.NewMemoryStore(cfg.MaxKeys)
	if client != nil {
		store = ratelimiter.NewRedisStore(client, ratelimiter.WithRedisPrefix(cfg.RedisPrefix))
	}
	return ratelimiter.NewBucket(store, cfg.Limits())
}
