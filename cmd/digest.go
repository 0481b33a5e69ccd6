package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDigestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Compute and send the open requests digest once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			n, err := runOnceManual(cmd.Context(), cfg, log, opts.build)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "digest sent for %d open requests\n", n)
			return nil
		},
	}
}

// runOnceManual 构建依赖并执行一次摘要。
func runOnceManual(ctx context.Context, cfg AppConfig, log *zap.Logger, build depsBuilder) (int, error) {
	deps, cleanup, err := build(ctx, cfg, log)
	if err != nil {
		return 0, fmt.Errorf("build deps: %w", err)
	}
	defer cleanup()

	return deps.sched.RunOnce(ctx)
}
