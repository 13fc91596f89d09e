package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// fakeStatuses applies conditional $set updates to a single in-memory order.
type fakeStatuses struct {
	order   models.Order
	updates []bson.M
	failOn  int
}

func (f *fakeStatuses) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.updates = append(f.updates, filter.(bson.M))
	if f.failOn == len(f.updates) {
		return nil, errors.New("connection reset")
	}

	where := filter.(bson.M)
	if where["_id"] != f.order.ID || where["status"] != f.order.Status {
		return &mongo.UpdateResult{}, nil
	}
	if at, ok := where["updatedAt"]; ok && !at.(time.Time).Equal(f.order.UpdatedAt) {
		return &mongo.UpdateResult{}, nil
	}

	set := update.(bson.M)["$set"].(bson.M)
	f.order.Status = set["status"].(models.OrderStatus)
	f.order.UpdatedAt = set["updatedAt"].(time.Time)
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

type fakeHistory struct {
	entries []models.OrderHistory
	err     error
}

func (f *fakeHistory) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, document.(models.OrderHistory))
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

var (
	placedAt  = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	changedAt = placedAt.Add(time.Hour)
)

func pendingOrder() models.Order {
	return models.Order{ID: primitive.NewObjectID(), OrderNumber: "TS1", Status: models.StatusPending, UpdatedAt: placedAt}
}

func TestCommitStatusChangeWritesHistory(t *testing.T) {
	order := pendingOrder()
	statuses := &fakeStatuses{order: order}
	history := &fakeHistory{}

	updated, err := commitStatusChange(context.Background(), statuses, history, order, models.StatusConfirmed, "admin@example.com", "paid", changedAt)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, models.StatusConfirmed, statuses.order.Status)
	require.Len(t, history.entries, 1)
	assert.Equal(t, models.StatusPending, history.entries[0].StatusFrom)
	assert.Equal(t, models.StatusConfirmed, history.entries[0].StatusTo)
	assert.Equal(t, "admin@example.com", history.entries[0].ChangedBy)
}

func TestCommitStatusChangeRestoresStatusWhenHistoryFails(t *testing.T) {
	order := pendingOrder()
	statuses := &fakeStatuses{order: order}
	history := &fakeHistory{err: errors.New("write concern timeout")}

	_, err := commitStatusChange(context.Background(), statuses, history, order, models.StatusConfirmed, "admin@example.com", "", changedAt)
	require.Error(t, err)
	assert.ErrorContains(t, err, "insert history")

	assert.Equal(t, models.StatusPending, statuses.order.Status)
	assert.Equal(t, placedAt, statuses.order.UpdatedAt)
	require.Len(t, statuses.updates, 2)
	assert.Equal(t, models.StatusConfirmed, statuses.updates[1]["status"], "restore only matches the status just written")
}

func TestCommitStatusChangeReportsFailedRestore(t *testing.T) {
	order := pendingOrder()
	statuses := &fakeStatuses{order: order, failOn: 2}
	history := &fakeHistory{err: errors.New("write concern timeout")}

	_, err := commitStatusChange(context.Background(), statuses, history, order, models.StatusConfirmed, "admin@example.com", "", changedAt)
	require.Error(t, err)
	assert.ErrorContains(t, err, "insert history")
	assert.ErrorContains(t, err, "restore status")
}

func TestCommitStatusChangeLosesRaceAsTransitionError(t *testing.T) {
	order := pendingOrder()
	statuses := &fakeStatuses{order: order}
	statuses.order.Status = models.StatusCancelled
	history := &fakeHistory{}

	_, err := commitStatusChange(context.Background(), statuses, history, order, models.StatusConfirmed, "admin@example.com", "", changedAt)

	var transitionErr models.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Empty(t, history.entries)
}

func TestCommitStatusChangeRejectsIllegalMove(t *testing.T) {
	order := pendingOrder()
	order.Status = models.StatusDelivered
	statuses := &fakeStatuses{order: order}

	_, err := commitStatusChange(context.Background(), statuses, &fakeHistory{}, order, models.StatusPending, "admin@example.com", "", changedAt)

	var transitionErr models.TransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Empty(t, statuses.updates)
}
