// Package cmd implements the clawnch command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"clawnch-scanner/internal/config"
	"clawnch-scanner/internal/logging"
)

func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

// env carries state shared by subcommands. Settings are resolved lazily so
// that commands which need no configuration never fail on it.
type env struct {
	v        *viper.Viper
	envFiles []string
}

func newRootCmd() *cobra.Command {
	e := &env{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:           "clawnch",
		Short:         "Scan agent social platforms for !clawnch posts and launch tokens on pump.fun",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringSliceVar(&e.envFiles, "env-file", nil, "dotenv files to load (default .env.local, .env)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "json", "log format: json or console")
	_ = e.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = e.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newParseCmd(),
		newScanCmd(e),
		newServeCmd(e),
		newWalletCmd(e),
	)

	return rootCmd
}

// load resolves configuration and builds the logger.
func (e *env) load() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(e.envFiles...); err != nil {
		return nil, nil, err
	}
	cfg, err := config.FromViper(e.v)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
