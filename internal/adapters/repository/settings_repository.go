package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshroots/harvest-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const settingsDocID = "store"

type SettingsRepository interface {
	// Get returns ErrNotFound when no settings have been saved yet.
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

type MongoSettingsRepository struct {
	DB *mongo.Database
}

func NewSettingsRepository(db *mongo.Database) SettingsRepository {
	return &MongoSettingsRepository{DB: db}
}

func (r *MongoSettingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := r.DB.Collection("settings").FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Settings{}, ErrNotFound
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return s, nil
}

func (r *MongoSettingsRepository) Save(ctx context.Context, s models.Settings) error {
	s.UpdatedAt = time.Now()
	_, err := r.DB.Collection("settings").UpdateOne(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$set": s},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
