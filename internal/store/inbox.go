package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// AdminInbox reads notification recipients from admins and writes notices
// into the shared messages collection.
type AdminInbox struct {
	admins   *mongo.Collection
	messages *mongo.Collection
}

func NewAdminInbox(db *mongo.Database) *AdminInbox {
	return &AdminInbox{
		admins:   db.Collection("admins"),
		messages: db.Collection("messages"),
	}
}

func (i *AdminInbox) Recipients(ctx context.Context) ([]models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := i.admins.Find(ctx, bson.M{"isAdmin": true})
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer cursor.Close(ctx)

	admins := make([]models.Admin, 0)
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	return admins, nil
}

func (i *AdminInbox) Deliver(ctx context.Context, msg models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := i.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message for %s: %w", msg.RecipientEmail, err)
	}
	return nil
}
