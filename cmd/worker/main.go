// Command worker runs the sync engine's scheduled jobs: draining the retry
// queue, recovering stale claims and running hydration by hand.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crew-recruitment-backend/config"
	"crew-recruitment-backend/internal/app"
	"crew-recruitment-backend/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const name = "crew-worker"

var rootCmd = &cobra.Command{
	Use:           name,
	Short:         "Background jobs for the ATS sync engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindEnv("debug", "DEBUG")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp loads configuration, wires the engine and runs fn with a context
// cancelled on SIGINT or SIGTERM.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.Init(cfg.Env, viper.GetBool("debug")).Named("worker")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}
