package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"clawnch-scanner/internal/config"
	"clawnch-scanner/internal/launch"
	"clawnch-scanner/internal/platforms"
	"clawnch-scanner/internal/scanner"
	"clawnch-scanner/internal/solana"
	"clawnch-scanner/internal/storage"
	chstore "clawnch-scanner/internal/storage/clickhouse"
	"clawnch-scanner/internal/storage/memory"
	"clawnch-scanner/internal/storage/migrations"
	pgstore "clawnch-scanner/internal/storage/postgres"
	redisstore "clawnch-scanner/internal/storage/redis"
)

var errNoWallet = errors.New("PLATFORM_WALLET_PRIVATE_KEY is required")

type app struct {
	signer   solana.Signer
	rpc      *solana.HTTPClient
	dedup    storage.DedupStore
	activity storage.ActivityLog
	registry storage.TokenRegistry
	archive  storage.LaunchArchive // nil when not configured
	outcomes storage.OutcomeStore  // nil when not configured
	launcher *launch.Orchestrator
	runner   *scanner.Runner

	log     *zap.Logger
	closers []func()
}

// Close releases connections in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wireApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	signer, err := loadSigner(cfg.WalletPrivateKey)
	if err != nil {
		return nil, err
	}

	a := &app{log: logger}
	if err := a.wire(ctx, cfg, signer); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, cfg *config.Config, signer *solana.Keypair) error {
	logger := a.log
	a.signer = signer
	logger.Info("platform wallet loaded", zap.String("address", signer.PublicKey().String()))

	if err := a.wireStores(ctx, cfg); err != nil {
		return err
	}

	a.rpc = solana.NewHTTPClient(cfg.RPCURL)

	var ws solana.WSClient
	if cfg.WSURL != "" {
		client, err := solana.NewWSClient(ctx, cfg.WSURL, nil)
		if err != nil {
			logger.Warn("websocket unavailable, confirming by polling", zap.Error(err))
		} else {
			ws = client
			a.closers = append(a.closers, func() { client.Close() })
		}
	}

	ipfs := cfg.IPFSEndpoint
	if ipfs == "" {
		ipfs = launch.PumpIPFSEndpoint
	}
	portal := cfg.PumpPortalEndpoint
	if portal == "" {
		portal = launch.PumpPortalEndpoint
	}

	a.launcher = launch.New(launch.Options{
		Metadata: launch.NewPumpMetadataStore(ipfs),
		Builder:  launch.NewPumpPortalBuilder(portal),
		RPC:      a.rpc,
		Confirmer: solana.NewConfirmer(solana.ConfirmerOptions{
			RPC:    a.rpc,
			WS:     ws,
			Logger: logger.Named("confirm"),
		}),
		Registry: a.registry,
		Archive:  a.archive,
		Logger:   logger.Named("launch"),
	})

	a.runner = scanner.New(scanner.Options{
		Fetcher:     newFetcher(cfg, logger),
		Dedup:       a.dedup,
		Activity:    a.activity,
		Launcher:    a.launcher,
		Signer:      a.signer,
		Outcomes:    a.outcomes,
		MaxLaunches: cfg.MaxLaunches,
		Logger:      logger.Named("scanner"),
	})

	return nil
}

func (a *app) wireStores(ctx context.Context, cfg *config.Config) error {
	switch {
	case cfg.UseMemory:
		a.log.Warn("using in-memory stores, state is lost on exit")
		a.dedup = memory.NewDedupStore()
		a.activity = memory.NewActivityLog()
		a.registry = memory.NewTokenRegistry()
		a.archive = memory.NewLaunchArchive()
		a.outcomes = memory.NewOutcomeStore()
	case cfg.HasRedis():
		client, err := redisstore.NewClient(ctx, redisstore.Options{
			URL:      cfg.RedisURL,
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.dedup = redisstore.NewDedupStore(client)
		a.activity = redisstore.NewActivityLog(client)
		a.registry = redisstore.NewTokenRegistry(client)
	default:
		return errors.New("REDIS_URL or REDIS_ADDR is required (set USE_MEMORY=true for in-memory stores)")
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN, 0)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := migrations.ApplyPostgres(ctx, pool); err != nil {
			return fmt.Errorf("migrate postgres: %w", err)
		}
		a.archive = pgstore.NewLaunchArchive(pool)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := chstore.EnsureDatabase(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		a.closers = append(a.closers, func() { conn.Close() })
		if err := migrations.ApplyClickhouse(ctx, conn); err != nil {
			return fmt.Errorf("migrate clickhouse: %w", err)
		}
		a.outcomes = chstore.NewOutcomeStore(conn)
	}

	return nil
}

func newFetcher(cfg *config.Config, logger *zap.Logger) *platforms.Fetcher {
	log := logger.Named("platforms")
	return platforms.NewFetcher(log,
		platforms.NewMoltbook(platforms.AdapterConfig{Token: cfg.MoltbookToken, Logger: log}),
		platforms.NewFourclaw(platforms.AdapterConfig{Token: cfg.FourclawToken, Logger: log}),
		platforms.NewMoltx(platforms.AdapterConfig{Token: cfg.MoltxToken, Logger: log}),
	)
}

func loadSigner(secret string) (*solana.Keypair, error) {
	if secret == "" {
		return nil, errNoWallet
	}
	kp, err := solana.KeypairFromBase58(secret)
	if err != nil {
		return nil, fmt.Errorf("load platform wallet: %w", err)
	}
	return kp, nil
}
