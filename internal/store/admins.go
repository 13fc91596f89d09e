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
	ErrAdminNotFound   = errors.New("admin not found")
	ErrAccountNotFound = errors.New("no account with that email")
)

// AdminPatch carries the fields an admin update may change. Nil fields are
// left alone.
type AdminPatch struct {
	Email        *string
	PasswordHash *string
	IsAdmin      *bool
}

// AdminRepository manages back-office accounts. It reads customer accounts
// only to promote one by email.
type AdminRepository struct {
	admins *mongo.Collection
	users  *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{
		admins: db.Collection("admins"),
		users:  db.Collection("users"),
	}
}

func (r *AdminRepository) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.admins.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
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

func (r *AdminRepository) FindAdmin(ctx context.Context, id primitive.ObjectID) (models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var admin models.Admin
	err := r.admins.FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrAdminNotFound
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("find admin: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	admin.ID = primitive.NilObjectID
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))
	res, err := r.admins.InsertOne(ctx, admin)
	if mongo.IsDuplicateKeyError(err) {
		return models.Admin{}, ErrEmailTaken
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("insert admin %s: %w", admin.Email, err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		admin.ID = id
	}
	return admin, nil
}

func (r *AdminRepository) UpdateAdmin(ctx context.Context, id primitive.ObjectID, patch AdminPatch) (models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if patch.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.PasswordHash != nil {
		set["passwordHash"] = *patch.PasswordHash
	}
	if patch.IsAdmin != nil {
		set["isAdmin"] = *patch.IsAdmin
	}

	var admin models.Admin
	err := r.admins.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrAdminNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.Admin{}, ErrEmailTaken
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("update admin: %w", err)
	}
	return admin, nil
}

func (r *AdminRepository) DeleteAdmin(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.admins.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// PromoteByEmail grants admin rights to email. An existing admin account is
// re-enabled; otherwise a customer account with that email is copied into
// admins with its password, so the customer signs in to the back office
// with the credentials they already have.
func (r *AdminRepository) PromoteByEmail(ctx context.Context, email string) (models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	var admin models.Admin
	err := r.admins.FindOneAndUpdate(
		ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"isAdmin": true, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&admin)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, fmt.Errorf("promote admin %s: %w", email, err)
	}

	var user models.User
	err = r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Admin{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("find user %s: %w", email, err)
	}

	return r.CreateAdmin(ctx, models.Admin{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}
