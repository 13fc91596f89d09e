// Package checkout runs a submission through assembly, the order write and
// the notification fan-out. Only validation can stop it.
package checkout

import (
	"context"
	"log"

	"github.com/sourcegraph/conc/panics"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/orders"
)

// NotificationsDelayed is shown when neither notification channel worked.
const NotificationsDelayed = "Order saved, but notifications may be delayed."

type OrderWriter interface {
	InsertOrder(ctx context.Context, order models.Order) (primitive.ObjectID, error)
}

type Notifier interface {
	Notify(ctx context.Context, order models.Order) notify.Outcome
}

type Result struct {
	Order         models.Order   `json:"order"`
	Persisted     bool           `json:"persisted"`
	OrderID       string         `json:"orderId,omitempty"`
	Notifications notify.Outcome `json:"notifications"`
	Warning       string         `json:"warning,omitempty"`
}

type Service struct {
	assembler *orders.Assembler
	writer    OrderWriter
	notifier  Notifier
}

func NewService(assembler *orders.Assembler, writer OrderWriter, notifier Notifier) *Service {
	return &Service{assembler: assembler, writer: writer, notifier: notifier}
}

// PlaceOrder returns an error only for orders.ValidationError. A failed
// write still yields a Result built from the local order.
func (s *Service) PlaceOrder(ctx context.Context, req orders.Request) (Result, error) {
	order, err := s.assembler.Assemble(req)
	if err != nil {
		return Result{}, err
	}

	result := Result{Order: order}

	id, err := s.persist(ctx, order)
	if err != nil {
		log.Printf("[CHECKOUT] [WARN] order %s not persisted, confirming from local copy (needs manual reconciliation): %v", order.OrderNumber, err)
	} else {
		result.Persisted = true
		result.OrderID = id.Hex()
		result.Order.ID = id
		log.Printf("[CHECKOUT] [INFO] order %s saved as %s", order.OrderNumber, id.Hex())
	}

	result.Notifications = s.notifier.Notify(ctx, result.Order)
	if !result.Notifications.Success() {
		result.Warning = NotificationsDelayed
	}
	return result, nil
}

func (s *Service) persist(ctx context.Context, order models.Order) (id primitive.ObjectID, err error) {
	var pc panics.Catcher
	pc.Try(func() { id, err = s.writer.InsertOrder(ctx, order) })
	if r := pc.Recovered(); r != nil {
		return primitive.NilObjectID, r.AsError()
	}
	return id, err
}
