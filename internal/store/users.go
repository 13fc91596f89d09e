package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrTokenNotFound = errors.New("refresh token not found")
)

// UserRepository owns customer accounts and their refresh tokens.
type UserRepository struct {
	users  *mongo.Collection
	tokens *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:  db.Collection("users"),
		tokens: db.Collection("refresh_tokens"),
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user.ID = primitive.NilObjectID
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	res, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return models.User{}, ErrEmailTaken
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user %s: %w", user.Email, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return user, nil
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findUser(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findUser(ctx context.Context, filter bson.M) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// ListUsers returns every customer account, newest first.
func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// UpdateProfile replaces the display name and phone. Email is not editable
// here because orders and messages are matched on it.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, phone string) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user models.User
	err := r.users.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"displayName": displayName,
			"phone":       phone,
			"updatedAt":   time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) TouchSignIn(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastSignInAt": at}}); err != nil {
		return fmt.Errorf("touch sign-in: %w", err)
	}
	return nil
}

func (r *UserRepository) SaveRefreshToken(ctx context.Context, token models.RefreshToken) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	token.ID = primitive.NilObjectID
	res, err := r.tokens.InsertOne(ctx, token)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert refresh token: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert refresh token: unexpected id type %T", res.InsertedID)
	}
	return id, nil
}

// FindRefreshToken returns the unrevoked token with the given hash. Expiry
// is left to the caller.
func (r *UserRepository) FindRefreshToken(ctx context.Context, hash string) (models.RefreshToken, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var token models.RefreshToken
	err := r.tokens.FindOne(ctx, bson.M{"tokenHash": hash, "revoked": false}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RefreshToken{}, ErrTokenNotFound
	}
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return token, nil
}

func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"revoked": true}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}
	if _, err := r.tokens.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeRefreshTokenByHash reports whether an active token was revoked.
func (r *UserRepository) RevokeRefreshTokenByHash(ctx context.Context, hash string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.tokens.UpdateOne(ctx, bson.M{"tokenHash": hash, "revoked": false}, bson.M{"$set": bson.M{"revoked": true}})
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return res.MatchedCount > 0, nil
}
