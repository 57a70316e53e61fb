package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"clawnch-scanner/internal/api"
	"clawnch-scanner/internal/config"
	"clawnch-scanner/internal/scanner"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and optionally scan on an interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := e.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.New(api.Options{
				Scanner:    a.runner,
				Launcher:   a.launcher,
				Signer:     a.signer,
				Balance:    a.rpc,
				Sender:     a.rpc,
				Activity:   a.activity,
				Registry:   a.registry,
				Archive:    a.archive,
				Outcomes:   a.outcomes,
				CronSecret: cfg.CronSecret,
				RateLimit:  rate.Limit(float64(cfg.RateLimitPerMinute) / 60),
				Burst:      cfg.RateLimitBurst,
				Logger:     logger.Named("api"),
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx, cfg.HTTPAddr)
			})

			if cfg.ScanInterval > 0 {
				sched := scanner.NewScheduler(a.runner, cfg.ScanInterval, logger.Named("scheduler"))
				g.Go(func() error {
					if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			} else {
				logger.Info("interval scanning disabled, waiting for /scan calls")
			}

			err = g.Wait()
			logger.Info("shutdown complete", zap.Error(err))
			return err
		},
	}

	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cmd.Flags().Duration("scan-interval", 0, "run a scan pass on this interval (0 disables)")
	_ = e.v.BindPFlag(config.KeyHTTPAddr, cmd.Flags().Lookup("addr"))
	_ = e.v.BindPFlag(config.KeyScanInterval, cmd.Flags().Lookup("scan-interval"))

	return cmd
}
