package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// Global flags
	envFiles []string
	timeout  time.Duration
	verbose  bool

	cfg config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "harvestctl",
	Short: "Operator tooling for the harvest backend",
	Long: `harvestctl runs the maintenance tasks that sit outside the HTTP API:
index creation, store settings, invoice recomputation and token minting.

Configuration is read from the same environment variables and .env files
as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load(envFiles...)
		if verbose {
			cfg.LogLevel = "debug"
		}
		cfg.SetupLogging()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for database work")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(indexesCmd, settingsCmd, tokenCmd, invoicesCmd)
}

// withDatabase connects using the loaded configuration and runs fn.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *mongo.Database) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, db, err := repository.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logrus.WithError(err).Warn("MongoDB disconnect failed")
		}
	}()
	logrus.WithField("database", cfg.MongoDB).Debug("Connected to MongoDB")
	return fn(ctx, db)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
