package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	categoryIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("category_createdAt"),
	}

	log.Println("EnsureProductIndexes: creating category_createdAt index")
	if _, err := indexes.CreateOne(ctx, categoryIndex); err != nil {
		log.Println("EnsureProductIndexes: category index error:", err)
		return err
	}
	log.Println("EnsureProductIndexes: category_createdAt index created")
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "customer.name", Value: 1}},
			Options: options.Index().SetName("customerName_index"),
		},
		{
			Keys:    bson.D{{Key: "customer.email", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customerEmail_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_index"),
		},
	}

	log.Println("EnsureOrderIndexes: creating order indexes")
	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, orderIndexes); err != nil {
		log.Println("EnsureOrderIndexes: order index error:", err)
		return err
	}

	historyIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("orderId_createdAt"),
	}
	if _, err := db.Collection("order_history").Indexes().CreateOne(ctx, historyIndex); err != nil {
		log.Println("EnsureOrderIndexes: history index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureMessageIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messageIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "customerEmail", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customerEmail_createdAt"),
		},
	}

	log.Println("EnsureMessageIndexes: creating message indexes")
	if _, err := db.Collection("messages").Indexes().CreateMany(ctx, messageIndexes); err != nil {
		log.Println("EnsureMessageIndexes: message index error:", err)
		return err
	}
	log.Println("EnsureMessageIndexes: message indexes created")
	return nil
}

func EnsureAdminIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureAdminIndexes: creating email_unique index")
	if _, err := db.Collection("admins").Indexes().CreateOne(ctx, emailIndex); err != nil {
		log.Println("EnsureAdminIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureAdminIndexes: email_unique index created")
	return nil
}

// EnsureUserIndexes covers customer accounts and their refresh tokens.
// Expired refresh tokens are removed by a TTL index.
func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	if _, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex); err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}

	tokenIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_index"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		},
	}
	if _, err := db.Collection("refresh_tokens").Indexes().CreateMany(ctx, tokenIndexes); err != nil {
		log.Println("EnsureUserIndexes: refresh token index error:", err)
		return err
	}
	log.Println("EnsureUserIndexes: user indexes created")
	return nil
}
