package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type SettingsRepository struct {
	settings *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{settings: db.Collection("site_settings")}
}

func (r *SettingsRepository) All(ctx context.Context) ([]models.SiteSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.settings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer cursor.Close(ctx)

	settings := make([]models.SiteSetting, 0)
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	for i := range settings {
		settings[i].Value = json.RawMessage(settings[i].RawValue)
	}
	return settings, nil
}

// Upsert writes setting by key, creating it on first save.
func (r *SettingsRepository) Upsert(ctx context.Context, setting models.SiteSetting) (models.SiteSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	setting.RawValue = string(setting.Value)
	_, err := r.settings.UpdateOne(
		ctx,
		bson.M{"_id": setting.Key},
		bson.M{"$set": bson.M{
			"value":       setting.RawValue,
			"description": setting.Description,
			"updatedBy":   setting.UpdatedBy,
			"updatedAt":   setting.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.SiteSetting{}, fmt.Errorf("upsert setting %s: %w", setting.Key, err)
	}
	return setting, nil
}
