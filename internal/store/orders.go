// Package store holds the Mongo repositories the checkout and tracking
// flows depend on.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/orders"
)

const queryTimeout = 5 * time.Second

type OrderRepository struct {
	orders  *mongo.Collection
	history *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		orders:  db.Collection("orders"),
		history: db.Collection("order_history"),
	}
}

// InsertOrder writes the order once. There is no retry.
func (r *OrderRepository) InsertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	order.ID = primitive.NilObjectID
	res, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert order %s: %w", order.OrderNumber, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("insert order %s: unexpected id type %T", order.OrderNumber, res.InsertedID)
	}
	return id, nil
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (models.Order, error) {
	return r.findOne(ctx, bson.M{"orderNumber": orderNumber})
}

// FindByCustomerName returns the most recent order whose customer name
// contains fragment, ignoring case.
func (r *OrderRepository) FindByCustomerName(ctx context.Context, fragment string) (models.Order, error) {
	return r.findOne(ctx, bson.M{"customer.name": bson.M{
		"$regex":   regexp.QuoteMeta(fragment),
		"$options": "i",
	}})
}

// ListByCustomerEmail returns every order placed with email, newest first.
func (r *OrderRepository) ListByCustomerEmail(ctx context.Context, email string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.orders.Find(
		ctx,
		bson.M{"customer.email": exactFold(email)},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	list := make([]models.Order, 0)
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return list, nil
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	err := r.orders.FindOne(
		ctx,
		filter,
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}

func (r *OrderRepository) History(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.history.Find(
		ctx,
		bson.M{"orderId": orderID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]models.OrderHistory, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return entries, nil
}

// statusWriter and historyWriter are the slices of *mongo.Collection that a
// status change touches.
type statusWriter interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type historyWriter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// ChangeStatus applies a back-office status change and records it in the
// history collection. The update is conditional on the status read, so a
// concurrent change turns into a TransitionError rather than a lost write.
func (r *OrderRepository) ChangeStatus(ctx context.Context, id primitive.ObjectID, next models.OrderStatus, changedBy, notes string) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, orders.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("find order: %w", err)
	}

	return commitStatusChange(ctx, r.orders, r.history, order, next, changedBy, notes, time.Now())
}

// commitStatusChange writes the new status and its history entry. If the
// history insert fails the status is put back, so an order never shows a
// status its history does not explain.
func commitStatusChange(ctx context.Context, statuses statusWriter, history historyWriter, order models.Order, next models.OrderStatus, changedBy, notes string, now time.Time) (models.Order, error) {
	previous := order.Status
	if err := previous.Transition(next); err != nil {
		return models.Order{}, err
	}

	res, err := statuses.UpdateOne(
		ctx,
		bson.M{"_id": order.ID, "status": previous},
		bson.M{"$set": bson.M{"status": next, "updatedAt": now}},
	)
	if err != nil {
		return models.Order{}, fmt.Errorf("update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Order{}, models.TransitionError{From: previous, To: next}
	}

	entry := models.OrderHistory{
		OrderID:    order.ID,
		StatusFrom: previous,
		StatusTo:   next,
		ChangedBy:  changedBy,
		Notes:      notes,
		CreatedAt:  now,
	}
	if _, err := history.InsertOne(ctx, entry); err != nil {
		historyErr := fmt.Errorf("insert history: %w", err)
		_, rollbackErr := statuses.UpdateOne(
			ctx,
			bson.M{"_id": order.ID, "status": next, "updatedAt": now},
			bson.M{"$set": bson.M{"status": previous, "updatedAt": order.UpdatedAt}},
		)
		if rollbackErr != nil {
			log.Printf("[ORDER] [ERROR] order %s left at %s without history: %v", order.ID.Hex(), next, rollbackErr)
			return models.Order{}, errors.Join(historyErr, fmt.Errorf("restore status: %w", rollbackErr))
		}
		log.Printf("[ORDER] [WARN] order %s restored to %s after history insert failed", order.ID.Hex(), previous)
		return models.Order{}, historyErr
	}

	order.Status = next
	order.UpdatedAt = now
	return order, nil
}

// Delete removes the order and its history.
func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return orders.ErrNotFound
	}
	if _, err := r.history.DeleteMany(ctx, bson.M{"orderId": id}); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
