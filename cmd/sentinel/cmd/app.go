package cmd

import (
	"context"
	"fmt"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/config"
	"YieldSentinel/internal/decision"
	"YieldSentinel/internal/logger"
	"YieldSentinel/internal/model"
	"YieldSentinel/internal/scheduler"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/store"
	"YieldSentinel/internal/strategy"

	"go.uber.org/zap"
)

// app is the wired component graph shared by the subcommands.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	store      *store.SQLiteStore
	source     *collector.EthSource
	settings   *settings.Service
	strategies *strategy.Registry
	decisions  *decision.Engine
	scheduler  *scheduler.Scheduler
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(config.ResolvePath(configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.SQLitePath, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	known := make([]model.Token, 0, len(strategy.Tokens)+len(cfg.Tokens))
	for _, t := range strategy.Tokens {
		known = append(known, t)
	}
	known = append(known, cfg.Tokens...)
	source, err := collector.NewEthSource(ctx, cfg.Chain.RPCURL, cfg.Proxy, cfg.Chain.Timeout, known)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	log.Info("balance source ready", zap.String("source", source.Name()), zap.String("rpc_url", cfg.Chain.RPCURL))

	svc := settings.New(st)
	if err := seedWallet(ctx, svc, cfg.WalletAddress); err != nil {
		source.Close()
		_ = st.Close()
		return nil, err
	}

	registry, err := strategy.NewRegistry(collector.NewCollector(source), st, svc, cfg.Tokens)
	if err != nil {
		source.Close()
		_ = st.Close()
		return nil, fmt.Errorf("build strategies: %w", err)
	}
	engine := decision.NewEngine(st, log)
	sched, err := scheduler.NewScheduler(scheduler.Options{
		Schedule:   cfg.Scan.Schedule,
		RunOnStart: cfg.RunOnStart(),
	}, st, svc, registry, engine, log)
	if err != nil {
		source.Close()
		_ = st.Close()
		return nil, err
	}

	return &app{
		cfg:        cfg,
		log:        log,
		store:      st,
		source:     source,
		settings:   svc,
		strategies: registry,
		decisions:  engine,
		scheduler:  sched,
	}, nil
}

// seedWallet stores the configured address unless one is already set.
func seedWallet(ctx context.Context, svc *settings.Service, addr string) error {
	if addr == "" {
		return nil
	}
	current, err := svc.WalletAddress(ctx)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return svc.SetWalletAddress(ctx, addr)
}

func (a *app) Close() {
	a.source.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error("close store", zap.Error(err))
	}
	logger.Sync(a.log)
}
