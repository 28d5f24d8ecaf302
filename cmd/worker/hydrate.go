package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"crew-recruitment-backend/internal/app"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "Run the first-login hydration for one candidate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		candidateID := viper.GetString("hydrate.candidate")
		if candidateID == "" {
			return errors.New("--candidate is required")
		}
		return withApp(func(ctx context.Context, a *app.App) error {
			report := a.Hydration.Hydrate(ctx, candidateID)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if report.Error != "" {
				return fmt.Errorf("hydration failed: %s", report.Error)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(hydrateCmd)

	hydrateCmd.Flags().String("candidate", "", "local candidate id")
	viper.BindPFlag("hydrate.candidate", hydrateCmd.Flags().Lookup("candidate"))
}
