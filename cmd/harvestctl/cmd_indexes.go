package main

import (
	"context"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the MongoDB indexes the API relies on",
	Long: `Creates every index used by order listing, invoice numbering, the
product catalogue and carts. Existing indexes with the same definition are
left alone, so the command is safe to re-run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			if _, err := repository.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			logrus.WithField("count", len(repository.Indexes())).Info("Index creation complete")
			return nil
		})
	},
}
