package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/eligibility"
	"github.com/freshroots/harvest-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// StoreSettings resolves the settings in force for a request: the stored
// settings document when there is one, the configured defaults otherwise.
type StoreSettings struct {
	Repo     repository.SettingsRepository
	Defaults models.Settings
	Location *time.Location
}

func (s *StoreSettings) Current(ctx context.Context) models.Settings {
	if s.Repo == nil {
		return s.Defaults
	}
	stored, err := s.Repo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logrus.WithError(err).Warn("Falling back to default settings")
		}
		return s.Defaults
	}
	if _, err := eligibility.ParseCutoff(stored.CutoffTime); err != nil {
		logrus.WithError(err).Warn("Stored cutoff is invalid, using default")
		stored.CutoffTime = s.Defaults.CutoffTime
	}
	return stored
}

func (s *StoreSettings) Policy(ctx context.Context) eligibility.Policy {
	return s.policyFor(s.Current(ctx))
}

func (s *StoreSettings) policyFor(st models.Settings) eligibility.Policy {
	cutoff, err := eligibility.ParseCutoff(st.CutoffTime)
	if err != nil {
		cutoff, _ = eligibility.ParseCutoff(s.Defaults.CutoffTime)
	}
	return eligibility.Policy{Cutoff: cutoff, Location: s.location()}
}

func (s *StoreSettings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
