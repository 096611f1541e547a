package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"waste-route-service/internal/api/dto"
	"waste-route-service/internal/app"
	"waste-route-service/internal/config"
	"waste-route-service/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dbtool",
	Short: "Database and batch tooling for the waste route service",
	Long: `dbtool manages the route database and runs generation outside the HTTP server.

Examples:
  dbtool migrate     # create tables
  dbtool seed        # load drivers from SEED_PATH
  dbtool generate    # generate today's routes and print the result`,
	SilenceUsage: true,
}

var seedPath string

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "driver seed JSON (defaults to SEED_PATH)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads config, builds the app (which migrates the schema) and runs fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the drivers, routes and route_generation_logs tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			a.Log.Info("schema ready", zap.String("driver", a.Config.DBDriver))
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the driver roster from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if seedPath != "" {
				a.Config.SeedPath = seedPath
			}
			n, err := a.SeedDrivers(cmd.Context())
			if err != nil {
				return err
			}
			a.Log.Info("drivers seeded", zap.String("path", a.Config.SeedPath), zap.Int("count", n))
			return nil
		})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate today's routes and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			res, err := a.Generator.Generate(cmd.Context())
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(dto.NewGenerationResponse(res)); err != nil {
				return fmt.Errorf("print result: %w", err)
			}
			return nil
		})
	},
}
