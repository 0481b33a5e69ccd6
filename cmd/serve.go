package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"recruit-matcher/internal/api"
	"recruit-matcher/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the match digest scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			deps, cleanup, err := opts.build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			var authn api.Authenticator
			if deps.verifier != nil {
				authn = deps.verifier
			}
			handler := api.NewHandler(deps.engine, deps.sched, authn, log)
			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			log.Info("starting the recruit-matcher", zap.String("version", version), zap.String("addr", cfg.Server.Addr))
			return runServer(cmd.Context(), srv, deps.sched, cfg.Server.ShutdownGrace, log)
		},
	}
}

// runServer 同时运行 HTTP 服务与调度器，ctx 取消或服务退出时优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched digestScheduler, grace time.Duration, log *zap.Logger) error {
	log = logger.OrNop(log)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("scheduler stopped", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), grace)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("server stopped")
		return nil
	})

	return g.Wait()
}
