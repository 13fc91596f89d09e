package orders

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyQuery = errors.New("order number or name is required")
)

// deliveryWindow is the upper bound quoted to shoppers (5-14 business days).
const deliveryWindow = 14 * 24 * time.Hour

var stageLabels = []struct {
	status models.OrderStatus
	label  string
}{
	{models.StatusConfirmed, "Order Confirmed"},
	{models.StatusProcessing, "Processing & Packing"},
	{models.StatusShipped, "Shipped to Kenya"},
	{models.StatusDelivered, "Delivered"},
}

var progressByStatus = map[models.OrderStatus]int{
	models.StatusPending:    0,
	models.StatusConfirmed:  25,
	models.StatusProcessing: 50,
	models.StatusShipped:    75,
	models.StatusDelivered:  100,
}

var statusTexts = map[models.OrderStatus]string{
	models.StatusPending:    "We have received your order and are verifying your payment.",
	models.StatusConfirmed:  "Your payment is confirmed. We will start preparing your order shortly.",
	models.StatusProcessing: "Your order is being processed and will ship within 3-5 days.",
	models.StatusShipped:    "Your wig is on its way. Delivery usually takes 5-14 business days.",
	models.StatusDelivered:  "Your order has been delivered. Enjoy your new look!",
	models.StatusCancelled:  "This order was cancelled. Contact us if you believe this is a mistake.",
	models.StatusRefunded:   "This order has been refunded.",
}

type Stage struct {
	Status    models.OrderStatus `json:"status"`
	Label     string             `json:"text"`
	Completed bool               `json:"completed"`
	Date      *time.Time         `json:"date,omitempty"`
}

type TrackedItem struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type TrackedOrder struct {
	OrderNumber       string             `json:"orderNumber"`
	CustomerName      string             `json:"customerName"`
	Status            models.OrderStatus `json:"status"`
	StatusText        string             `json:"statusText"`
	Progress          int                `json:"progress"`
	Timeline          []Stage            `json:"timeline"`
	EstimatedDelivery *time.Time         `json:"estimatedDelivery,omitempty"`
	Items             []TrackedItem      `json:"items"`
}

// Track builds the shopper-facing view of an order. history only supplies
// stage dates and may be empty.
func Track(order models.Order, history []models.OrderHistory) TrackedOrder {
	reached := order.Status.Rank()
	if reached < 0 {
		// side branch: completion stops where the order left the main chain
		for _, h := range history {
			if rank := h.StatusFrom.Rank(); rank > reached {
				reached = rank
			}
		}
	}

	timeline := make([]Stage, 0, len(stageLabels))
	for _, s := range stageLabels {
		stage := Stage{
			Status:    s.status,
			Label:     s.label,
			Completed: reached >= 0 && reached >= s.status.Rank(),
		}
		if stage.Completed {
			stage.Date = stageDate(history, s.status)
		}
		timeline = append(timeline, stage)
	}

	var eta *time.Time
	if !order.Status.Terminal() && !order.CreatedAt.IsZero() {
		t := order.CreatedAt.Add(deliveryWindow)
		eta = &t
	}

	items := make([]TrackedItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, TrackedItem{
			Name:     line.Name,
			Size:     line.LaceSize + " • " + line.InchSize,
			Quantity: line.Quantity,
		})
	}

	return TrackedOrder{
		OrderNumber:       order.OrderNumber,
		CustomerName:      order.Customer.Name,
		Status:            order.Status,
		StatusText:        statusTexts[order.Status],
		Progress:          progressByStatus[order.Status],
		Timeline:          timeline,
		EstimatedDelivery: eta,
		Items:             items,
	}
}

// stageDate is the time of the first change that reached or passed status.
func stageDate(history []models.OrderHistory, status models.OrderStatus) *time.Time {
	var found *time.Time
	for _, h := range history {
		if h.StatusTo.Rank() < status.Rank() {
			continue
		}
		if found == nil || h.CreatedAt.Before(*found) {
			t := h.CreatedAt
			found = &t
		}
	}
	return found
}

// Finder is the read side of the order store.
type Finder interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (models.Order, error)
	FindByCustomerName(ctx context.Context, fragment string) (models.Order, error)
	History(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderHistory, error)
}

type Query struct {
	OrderNumber  string
	NameFragment string
}

type Lookup struct {
	finder Finder
}

func NewLookup(finder Finder) *Lookup {
	return &Lookup{finder: finder}
}

// Find matches by order number when given, otherwise by a case-insensitive
// fragment of the customer name. A miss returns ErrNotFound.
func (l *Lookup) Find(ctx context.Context, q Query) (TrackedOrder, error) {
	number := strings.ToUpper(strings.TrimSpace(q.OrderNumber))
	fragment := strings.TrimSpace(q.NameFragment)

	var (
		order models.Order
		err   error
	)
	switch {
	case number != "":
		order, err = l.finder.FindByOrderNumber(ctx, number)
	case fragment != "":
		order, err = l.finder.FindByCustomerName(ctx, fragment)
	default:
		return TrackedOrder{}, ErrEmptyQuery
	}
	if err != nil {
		return TrackedOrder{}, err
	}

	history, err := l.finder.History(ctx, order.ID)
	if err != nil {
		log.Printf("[TRACK] [WARN] history unavailable for %s: %v", order.OrderNumber, err)
		history = nil
	}

	return Track(order, history), nil
}
