package main

import (
	"context"
	"errors"
	"time"

	"crew-recruitment-backend/internal/app"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Replay due retry queue items",
	Long: "Releases stale claims, then replays up to --limit due items. With --interval " +
		"the command repeats until interrupted; otherwise it runs once.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			limit := viper.GetInt("drain.limit")
			if limit <= 0 {
				limit = a.Config.Sync.DrainLimit
			}
			return runDrain(ctx, a, limit, viper.GetDuration("drain.interval"))
		})
	},
}

var releaseStaleCmd = &cobra.Command{
	Use:   "release-stale",
	Short: "Return items stuck in processing to pending",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(func(ctx context.Context, a *app.App) error {
			olderThan := viper.GetDuration("release.older-than")
			if olderThan <= 0 {
				olderThan = a.Config.Sync.StaleAfter
			}
			n, err := a.Queue.ReleaseStale(ctx, olderThan)
			if err != nil {
				return err
			}
			a.Log.Info("stale items released", zap.Int64("count", n), zap.Duration("older_than", olderThan))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(drainCmd, releaseStaleCmd)

	drainCmd.Flags().Int("limit", 0, "maximum items per run (default SYNC_DRAIN_LIMIT)")
	drainCmd.Flags().Duration("interval", 0, "repeat every interval until interrupted; 0 runs once")
	viper.BindPFlag("drain.limit", drainCmd.Flags().Lookup("limit"))
	viper.BindPFlag("drain.interval", drainCmd.Flags().Lookup("interval"))
	viper.BindEnv("drain.interval", "SYNC_DRAIN_INTERVAL")

	releaseStaleCmd.Flags().Duration("older-than", 0, "claim age after which an item is stale (default SYNC_STALE_AFTER)")
	viper.BindPFlag("release.older-than", releaseStaleCmd.Flags().Lookup("older-than"))
}

func runDrain(ctx context.Context, a *app.App, limit int, interval time.Duration) error {
	for {
		if err := drainOnce(ctx, a, limit); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if interval <= 0 {
				return err
			}
			a.Log.Error("drain run failed", zap.Error(err))
		}
		if interval <= 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			a.Log.Info("drain loop stopped")
			return nil
		case <-time.After(interval):
		}
	}
}

func drainOnce(ctx context.Context, a *app.App, limit int) error {
	if _, err := a.Queue.ReleaseStale(ctx, a.Config.Sync.StaleAfter); err != nil {
		return err
	}
	stats, err := a.Queue.Drain(ctx, limit)
	if err != nil {
		return err
	}
	a.Log.Info("drain run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("rescheduled", stats.Rescheduled),
		zap.Int("failed", stats.Failed),
		zap.Int("abandoned", stats.Abandoned),
	)
	return nil
}
