package models

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
)

// mainChain is the forward progression of a healthy order.
var mainChain = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// transitions is the only place allowed status moves are defined. Main chain
// statuses may move to any later main chain status. Cancelled and refunded are
// terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded},
	StatusConfirmed:  {StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusCancelled, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

var statusLabels = map[OrderStatus]string{
	StatusPending:    "Pending",
	StatusConfirmed:  "Confirmed",
	StatusProcessing: "Processing",
	StatusShipped:    "Shipped",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
	StatusRefunded:   "Refunded",
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", raw)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// Rank is the position on the main chain, or -1 for side branches.
func (s OrderStatus) Rank() int {
	for i, st := range mainChain {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError reports a status move the table does not allow.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

// Transition validates a move from s to next.
func (s OrderStatus) Transition(next OrderStatus) error {
	if !s.CanTransitionTo(next) {
		return TransitionError{From: s, To: next}
	}
	return nil
}

// OrderStatuses lists every status in display order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, 0, len(mainChain)+2)
	out = append(out, mainChain...)
	return append(out, StatusCancelled, StatusRefunded)
}
