package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"recruit-matcher/internal/auth"
	"recruit-matcher/internal/matching"
	"recruit-matcher/internal/seed"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// withDeps 读取配置、组装依赖后执行 fn，结束时释放资源。
func (o *rootOptions) withDeps(cmd *cobra.Command, fn func(ctx context.Context, cfg AppConfig, log *zap.Logger, deps appDeps) error) error {
	cfg, log, err := o.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	deps, cleanup, err := o.build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(cmd.Context(), cfg, log, deps)
}

func newPoolCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Print open hiring requests and eligible candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withDeps(cmd, func(ctx context.Context, _ AppConfig, log *zap.Logger, deps appDeps) error {
				pool, err := deps.engine.LoadPool(ctx)
				if err != nil {
					log.Warn("pool unavailable, showing empty pool", zap.Error(err))
				}
				return printJSON(cmd.OutOrStdout(), pool)
			})
		},
	}
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var by string
	cmd := &cobra.Command{
		Use:   "recommend <request-id> <candidate-id>",
		Short: "Record a recommendation of a candidate for an open hiring request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd, func(ctx context.Context, _ AppConfig, _ *zap.Logger, deps appDeps) error {
				request, err := deps.engine.OpenRequest(ctx, args[0])
				if err != nil {
					return err
				}
				id, err := deps.engine.Recommend(ctx, matching.RecommendInput{
					RequestID:     request.ID,
					CandidateID:   args[1],
					AgencyID:      request.AgencyID,
					RecommendedBy: by,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recommendation %s recorded\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", matching.DefaultRecommendedBy, "operator recorded as recommended_by")
	return cmd
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load YAML fixtures into the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDeps(cmd, func(ctx context.Context, _ AppConfig, log *zap.Logger, deps appDeps) error {
				docs, err := seed.LoadFile(args[0])
				if err != nil {
					return err
				}
				n, err := seed.Apply(ctx, deps.store, docs)
				if err != nil {
					return err
				}
				log.Info("fixtures loaded", zap.String("file", args[0]), zap.Int("documents", n))
				return nil
			})
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return errors.New("auth.secret is not configured")
			}
			token, err := auth.NewVerifier(cfg.Auth).Issue(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "operator id stored as recommended_by")
	cmd.Flags().StringVar(&role, "role", "admin", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
