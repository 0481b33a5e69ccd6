package main

import (
	"fmt"

	"recruit-matcher/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const app = "recruit-matcher"

// version 在构建时通过 -ldflags 注入。
var version = "unknown"

type rootOptions struct {
	cfgFile string
	build   depsBuilder
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{build: buildDeps}

	root := &cobra.Command{
		Use:           app,
		Short:         "Match verified candidates to open hiring requests and record recommendations",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "a config file (default is config.yaml in current directory or $CONFIG_FILE)")
	root.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	root.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	root.AddCommand(
		newServeCmd(opts),
		newPoolCmd(opts),
		newMatchCmd(opts),
		newRecommendCmd(opts),
		newSeedCmd(opts),
		newDigestCmd(opts),
		newTokenCmd(opts),
		newVersionCmd(),
	)
	return root
}

// setup 读取配置并创建日志器。--debug 与 --json 覆盖配置文件。
func (o *rootOptions) setup(cmd *cobra.Command) (AppConfig, *zap.Logger, error) {
	v := newViper()
	for key, name := range map[string]string{"log.debug": "debug", "log.json": "json"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return AppConfig{}, nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := readConfig(v, o.cfgFile)
	if err != nil {
		return AppConfig{}, nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return AppConfig{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}
