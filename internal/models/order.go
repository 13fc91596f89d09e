package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/cart"
	"storefront/internal/pricing"
)

// Order defines the persisted order document. Items are copies of the cart
// lines at submission time.
type Order struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OrderNumber      string             `bson:"orderNumber" json:"orderNumber"`
	Customer         Customer           `bson:"customer" json:"customer"`
	Items            []cart.Line        `bson:"items" json:"items"`
	Delivery         pricing.Selection  `bson:"delivery" json:"delivery"`
	Subtotal         int64              `bson:"subtotal" json:"subtotal"`
	DeliveryFee      int64              `bson:"deliveryFee" json:"deliveryFee"`
	Total            int64              `bson:"total" json:"total"`
	PaymentReference string             `bson:"paymentReference" json:"paymentReference"`
	Status           OrderStatus        `bson:"status" json:"status"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OrderHistory records one status change made from the back office.
type OrderHistory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    primitive.ObjectID `bson:"orderId" json:"orderId"`
	StatusFrom OrderStatus        `bson:"statusFrom,omitempty" json:"statusFrom,omitempty"`
	StatusTo   OrderStatus        `bson:"statusTo" json:"statusTo"`
	ChangedBy  string             `bson:"changedBy,omitempty" json:"changedBy,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
