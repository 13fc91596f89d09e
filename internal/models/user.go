package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an optional customer account. Checkout never requires one; orders
// and messages are linked to an account by email.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	DisplayName  string             `bson:"displayName" json:"displayName"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	LastSignInAt *time.Time         `bson:"lastSignInAt,omitempty" json:"lastSignInAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
