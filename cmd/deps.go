package main

import (
	"context"
	"fmt"

	"recruit-matcher/internal/auth"
	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/model"
	"recruit-matcher/internal/notifier"
	"recruit-matcher/internal/scheduler"
	"recruit-matcher/internal/storage"

	"go.uber.org/zap"
)

// documentStore 同时满足匹配读写与夹具写入。
type documentStore interface {
	matching.Store
	Put(ctx context.Context, doc model.Document) error
	Close() error
}

type digestScheduler interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}

type recommendationNotifier interface {
	matching.Notifier
	scheduler.DigestNotifier
}

type appDeps struct {
	store    documentStore
	engine   *matching.Engine
	sched    digestScheduler
	verifier *auth.Verifier
}

type depsBuilder func(ctx context.Context, cfg AppConfig, log *zap.Logger) (appDeps, func(), error)

// buildDeps 组装存储、通知、匹配引擎与调度器，返回的 cleanup 负责关闭存储。
func buildDeps(ctx context.Context, cfg AppConfig, log *zap.Logger) (appDeps, func(), error) {
	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return appDeps{}, func() {}, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}

	notif := buildNotifier(cfg.Email, log)
	engine := matching.NewEngine(store, cfg.Matching, notif, log.Named("matching"))
	sched := scheduler.NewScheduler(engine, notif, cfg.Digest, log)

	deps := appDeps{store: store, engine: engine, sched: sched}
	if cfg.Auth.Enabled() {
		deps.verifier = auth.NewVerifier(cfg.Auth)
	} else {
		log.Warn("auth.secret not set, API is unauthenticated")
	}
	return deps, cleanup, nil
}

func openStore(ctx context.Context, cfg DatabaseConfig, log *zap.Logger) (documentStore, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := storage.NewPGStore(ctx, cfg.URL, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		log.Info("document store ready", zap.String("driver", "postgres"))
		return store, nil
	case "sqlite", "":
		store, err := storage.NewStore(cfg.Path, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		log.Info("document store ready", zap.String("driver", "sqlite"), zap.String("path", cfg.Path))
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func buildNotifier(cfg notifier.EmailConfig, log *zap.Logger) recommendationNotifier {
	if !cfg.Enabled() {
		log.Info("email notifier disabled: missing host/from/to, logging notifications instead")
		return notifier.NewLogNotifier(log)
	}
	return notifier.NewEmailNotifier(cfg, nil)
}
