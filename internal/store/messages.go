package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageFilter narrows the admin message list. A nil System keeps both
// customer and system rows.
type MessageFilter struct {
	Status models.MessageStatus
	System *bool
}

type MessageRepository struct {
	messages *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{messages: db.Collection("messages")}
}

func (r *MessageRepository) Insert(ctx context.Context, msg models.Message) (models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	msg.ID = primitive.NilObjectID
	res, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = id
	}
	return msg, nil
}

func (r *MessageRepository) List(ctx context.Context, filter MessageFilter) ([]models.Message, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.System != nil {
		if *filter.System {
			query["customerName"] = models.SystemSenderName
		} else {
			query["customerName"] = bson.M{"$ne": models.SystemSenderName}
		}
	}
	return r.find(ctx, query)
}

// ListByCustomerEmail returns the contact form submissions sent from email,
// newest first. System notices are never included.
func (r *MessageRepository) ListByCustomerEmail(ctx context.Context, email string) ([]models.Message, error) {
	return r.find(ctx, bson.M{
		"customerEmail": exactFold(email),
		"customerName":  bson.M{"$ne": models.SystemSenderName},
	})
}

func (r *MessageRepository) find(ctx context.Context, query bson.M) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.messages.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

// Update moves a message to next and optionally replaces the admin response.
// The write is conditional on the status read, so a concurrent move that
// would make this one go backwards is reported as a MessageTransitionError.
func (r *MessageRepository) Update(ctx context.Context, id primitive.ObjectID, next models.MessageStatus, response *string) (models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var current models.Message
	err := r.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("find message: %w", err)
	}
	if !current.Status.CanMoveTo(next) {
		return models.Message{}, models.MessageTransitionError{From: current.Status, To: next}
	}

	set := bson.M{"status": next, "updatedAt": time.Now()}
	if response != nil {
		set["adminResponse"] = strings.TrimSpace(*response)
	}

	var updated models.Message
	err = r.messages.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "status": current.Status},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Message{}, models.MessageTransitionError{From: current.Status, To: next}
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("update message: %w", err)
	}
	return updated, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.messages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// exactFold matches value exactly, ignoring case.
func exactFold(value string) bson.M {
	return bson.M{
		"$regex":   "^" + regexp.QuoteMeta(strings.TrimSpace(value)) + "$",
		"$options": "i",
	}
}
