// Package cart holds the shopper's line items. Add and Remove are pure: they
// never touch the slice they are given and always return a fresh snapshot.
package cart

import (
	"errors"
	"fmt"
	"math"
)

// MaxLineQuantity caps a single line, including merges.
const MaxLineQuantity = 1000

// ErrAmountOverflow is returned when a price calculation exceeds int64.
var ErrAmountOverflow = errors.New("amount overflows int64")

// QuantityLimitError reports a merge that would push a line past
// MaxLineQuantity.
type QuantityLimitError struct {
	Key       Key
	Requested int
}

func (e QuantityLimitError) Error() string {
	return fmt.Sprintf("quantity %d for product %d exceeds limit of %d", e.Requested, e.Key.ProductID, MaxLineQuantity)
}

// Key identifies a line for merge purposes.
type Key struct {
	ProductID int64  `json:"productId"`
	LaceSize  string `json:"laceSize"`
	InchSize  string `json:"inchSize"`
}

// Line is one product variant in the cart. UnitPrice is captured when the
// line is added and is never re-read from the catalog.
type Line struct {
	ProductID int64  `bson:"productId" json:"productId"`
	Name      string `bson:"name" json:"name"`
	ImageRef  string `bson:"imageRef" json:"image"`
	LaceSize  string `bson:"laceSize" json:"laceSize"`
	InchSize  string `bson:"inchSize" json:"inchSize"`
	UnitPrice int64  `bson:"unitPrice" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, LaceSize: l.LaceSize, InchSize: l.InchSize}
}

// Total is UnitPrice * Quantity. Use CheckedTotal where the inputs are not
// already validated.
func (l Line) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CheckedTotal is Total with overflow detection.
func (l Line) CheckedTotal() (int64, error) {
	return MulAmount(l.UnitPrice, int64(l.Quantity))
}

// MulAmount multiplies two non-negative amounts.
func MulAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrAmountOverflow
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, ErrAmountOverflow
	}
	return a * b, nil
}

// AddAmount sums two non-negative amounts.
func AddAmount(a, b int64) (int64, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, ErrAmountOverflow
	}
	return a + b, nil
}

// Cart is an ordered snapshot of lines. No two lines share a Key.
type Cart []Line

// Add merges line into c. Callers reject quantities below one before calling.
// A line that would end up above MaxLineQuantity leaves c untouched and
// returns a QuantityLimitError.
func Add(c Cart, line Line) (Cart, error) {
	key := line.Key()
	if line.Quantity > MaxLineQuantity {
		return c, QuantityLimitError{Key: key, Requested: line.Quantity}
	}

	out := make(Cart, len(c), len(c)+1)
	copy(out, c)

	for i := range out {
		if out[i].Key() == key {
			merged := out[i].Quantity + line.Quantity
			if merged > MaxLineQuantity {
				return c, QuantityLimitError{Key: key, Requested: merged}
			}
			out[i].Quantity = merged
			return out, nil
		}
	}
	return append(out, line), nil
}

// Remove drops the line matching key. Unknown keys return an equal copy.
func Remove(c Cart, key Key) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.Key() == key {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (c Cart) Subtotal() int64 {
	var sum int64
	for _, line := range c {
		sum += line.Total()
	}
	return sum
}

// CheckedSubtotal is Subtotal with overflow detection on every line and on
// the running sum.
func (c Cart) CheckedSubtotal() (int64, error) {
	var sum int64
	for _, line := range c {
		total, err := line.CheckedTotal()
		if err != nil {
			return 0, err
		}
		if sum, err = AddAmount(sum, total); err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// ItemCount sums quantities across lines.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c {
		count += line.Quantity
	}
	return count
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}
