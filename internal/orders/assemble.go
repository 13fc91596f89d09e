package orders

import (
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/pricing"
)

// ValidationError lists the checkout fields that blocked assembly.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	return "missing or invalid: " + strings.Join(e.Fields, ", ")
}

type Request struct {
	Cart             cart.Cart
	Customer         models.Customer
	Delivery         pricing.Selection
	PaymentReference string
}

// Assembler turns a cart plus checkout details into an Order. It has no side
// effects beyond drawing an order number.
type Assembler struct {
	fees                 *pricing.Table
	numbers              *NumberGenerator
	now                  func() time.Time
	rejectUnknownRegions bool
}

type AssemblerOption func(*Assembler)

// WithUnknownRegionRejection makes an unrecognised county a validation error
// instead of a zero delivery fee.
func WithUnknownRegionRejection(reject bool) AssemblerOption {
	return func(a *Assembler) {
		a.rejectUnknownRegions = reject
	}
}

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(fees *pricing.Table, numbers *NumberGenerator, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		fees:    fees,
		numbers: numbers,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembler) validate(req Request) error {
	var fields []string

	if req.Cart.IsEmpty() {
		fields = append(fields, "cart")
	}
	badLine := false
	for i, line := range req.Cart {
		if line.Quantity < 1 || line.Quantity > cart.MaxLineQuantity || line.UnitPrice < 0 {
			fields = append(fields, fmt.Sprintf("cart[%d]", i))
			badLine = true
			continue
		}
		if _, err := line.CheckedTotal(); err != nil {
			fields = append(fields, fmt.Sprintf("cart[%d]", i))
			badLine = true
		}
	}
	if !badLine && !req.Cart.IsEmpty() {
		if _, _, _, err := a.total(req); err != nil {
			fields = append(fields, "cart")
		}
	}
	if strings.TrimSpace(req.Customer.Name) == "" {
		fields = append(fields, "customerName")
	}
	if strings.TrimSpace(req.Customer.Email) == "" {
		fields = append(fields, "email")
	}
	if strings.TrimSpace(req.Customer.Phone) == "" {
		fields = append(fields, "phone")
	}
	if strings.TrimSpace(req.PaymentReference) == "" {
		fields = append(fields, "paymentReference")
	}

	switch req.Delivery.Method {
	case pricing.MethodPickup:
	case pricing.MethodDelivery:
		if strings.TrimSpace(req.Delivery.Region) == "" {
			fields = append(fields, "county")
		} else if a.rejectUnknownRegions && !a.fees.Known(req.Delivery.Region) {
			fields = append(fields, "county")
		}
	default:
		fields = append(fields, "deliveryMethod")
	}

	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}

// total is subtotal plus the resolved delivery fee, with overflow checks.
func (a *Assembler) total(req Request) (subtotal, fee, total int64, err error) {
	if subtotal, err = req.Cart.CheckedSubtotal(); err != nil {
		return 0, 0, 0, err
	}
	fee = a.fees.Resolve(req.Delivery)
	if total, err = cart.AddAmount(subtotal, fee); err != nil {
		return 0, 0, 0, err
	}
	return subtotal, fee, total, nil
}

// Assemble validates req and builds a pending order. Nothing is written.
func (a *Assembler) Assemble(req Request) (models.Order, error) {
	if err := a.validate(req); err != nil {
		return models.Order{}, err
	}

	if req.Delivery.Method == pricing.MethodDelivery && !a.fees.Known(req.Delivery.Region) {
		log.Printf("[ORDER] [WARN] unknown delivery region %q, charging no delivery fee", req.Delivery.Region)
	}

	items := req.Cart.Clone()
	subtotal, fee, total, err := a.total(Request{Cart: items, Delivery: req.Delivery})
	if err != nil {
		return models.Order{}, ValidationError{Fields: []string{"cart"}}
	}
	now := a.now()

	return models.Order{
		OrderNumber: a.numbers.Next(),
		Customer: models.Customer{
			Name:  strings.TrimSpace(req.Customer.Name),
			Email: strings.TrimSpace(req.Customer.Email),
			Phone: strings.TrimSpace(req.Customer.Phone),
		},
		Items:            items,
		Delivery:         req.Delivery,
		Subtotal:         subtotal,
		DeliveryFee:      fee,
		Total:            total,
		PaymentReference: strings.TrimSpace(req.PaymentReference),
		Status:           models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
