package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/eligibility"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"
)

var settingsFile string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or replace the store settings document",
}

var settingsApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Save store settings from a YAML file",
	Long: `Reads cutoffTime, finishedOrderVisibility, deliveryFee and
freeDeliveryAbove from a YAML file. Fields left out of the file take the
configured defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettingsFile(settingsFile, cfg.StoreDefaults())
		if err != nil {
			return err
		}
		s.UpdatedAt = time.Now().UTC()
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			if err := repository.NewSettingsRepository(db).Save(ctx, s); err != nil {
				return err
			}
			logrus.WithField("cutoffTime", s.CutoffTime).Info("Store settings saved")
			return nil
		})
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings in force as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *mongo.Database) error {
			s, err := repository.NewSettingsRepository(db).Get(ctx)
			if errors.Is(err, repository.ErrNotFound) {
				logrus.Info("No settings stored, showing defaults")
				s = cfg.StoreDefaults()
			} else if err != nil {
				return err
			}
			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(s)
		})
	},
}

func init() {
	settingsApplyCmd.Flags().StringVarP(&settingsFile, "file", "f", "", "YAML settings file")
	_ = settingsApplyCmd.MarkFlagRequired("file")
	settingsCmd.AddCommand(settingsApplyCmd, settingsShowCmd)
}

// loadSettingsFile decodes path over defaults and validates the result.
// The cutoff is stored in its canonical HH:MM form.
func loadSettingsFile(path string, defaults models.Settings) (models.Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	s := defaults
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return models.Settings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validator.New().Struct(s); err != nil {
		return models.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	cutoff, err := eligibility.ParseCutoff(s.CutoffTime)
	if err != nil {
		return models.Settings{}, fmt.Errorf("cutoffTime: %w", err)
	}
	s.CutoffTime = cutoff.String()
	return s, nil
}
