package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin creates the bootstrap admin account when it does not exist
// yet. An existing account keeps its password.
func EnsureAdmin(db *mongo.Database, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	res, err := db.Collection("admins").UpdateOne(
		ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"email":        email,
			"passwordHash": string(hash),
			"isAdmin":      true,
			"createdAt":    now,
			"updatedAt":    now,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("ensure admin %s: %w", email, err)
	}
	if res.UpsertedCount > 0 {
		log.Println("[ADMIN] [INFO] bootstrap admin created:", email)
	}
	return nil
}
