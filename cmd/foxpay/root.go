package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/FoxPay/internal/pkg/config"
	"github.com/ManuelReschke/FoxPay/internal/pkg/env"
	"github.com/ManuelReschke/FoxPay/internal/pkg/logging"
)

// NewRootCommand creates the foxpay CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "foxpay",
		Short: "FoxPay - Stripe checkout sessions and webhook reconciliation",
	}
	cmd.AddCommand(newServeCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Start the HTTP server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	if !env.SetupEnvFile() {
		logging.Logger.Info("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	app, err := NewApplication(context.Background(), cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logging.Logger.WithField("signal", sig.String()).Info("shutting down")
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}
