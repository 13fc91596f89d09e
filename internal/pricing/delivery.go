package pricing

import (
	"fmt"
	"sort"
	"strings"
)

type Method string

const (
	MethodPickup   Method = "pickup"
	MethodDelivery Method = "delivery"
)

// DefaultPickupFee is charged for collection at the store.
const DefaultPickupFee int64 = 120

const PickupLocation = "StarMall C1, Nairobi"

// countyFees is the flat delivery fee per county.
var countyFees = map[string]int64{
	"nairobi":  200,
	"kiambu":   300,
	"machakos": 350,
	"kajiado":  400,
	"murang'a": 450,
	"nakuru":   500,
	"mombasa":  600,
	"kisumu":   700,
	"eldoret":  750,
	"thika":    300,
	"nyeri":    400,
	"meru":     600,
	"embu":     500,
	"garissa":  800,
	"kakamega": 650,
	"busia":    700,
	"kitale":   750,
	"malindi":  650,
	"lamu":     900,
	"isiolo":   600,
}

// Selection is either a store pickup or a delivery to Region.
type Selection struct {
	Method Method `bson:"method" json:"method"`
	Region string `bson:"region,omitempty" json:"county,omitempty"`
}

func Pickup() Selection {
	return Selection{Method: MethodPickup}
}

func RegionDelivery(region string) Selection {
	return Selection{Method: MethodDelivery, Region: NormalizeRegion(region)}
}

func NormalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}

// ParseSelection maps a method name plus optional county into a Selection.
func ParseSelection(method, region string) (Selection, error) {
	switch Method(strings.ToLower(strings.TrimSpace(method))) {
	case MethodPickup:
		return Pickup(), nil
	case MethodDelivery:
		sel := RegionDelivery(region)
		if sel.Region == "" {
			return Selection{}, fmt.Errorf("county is required for delivery")
		}
		return sel, nil
	default:
		return Selection{}, fmt.Errorf("unknown delivery method %q", method)
	}
}

// Label renders the selection the way it appears on order notices.
func (s Selection) Label() string {
	if s.Method == MethodPickup {
		return "Store Pickup (" + PickupLocation + ")"
	}
	return "County Delivery (" + s.Region + ")"
}

type Region struct {
	Key string `json:"value"`
	Fee int64  `json:"fee"`
}

// Table resolves delivery fees.
type Table struct {
	pickupFee int64
	regions   map[string]int64
}

func NewTable(pickupFee int64) *Table {
	regions := make(map[string]int64, len(countyFees))
	for k, v := range countyFees {
		regions[k] = v
	}
	return &Table{pickupFee: pickupFee, regions: regions}
}

func (t *Table) PickupFee() int64 {
	return t.pickupFee
}

// Known reports whether region has a tabled fee.
func (t *Table) Known(region string) bool {
	_, ok := t.regions[NormalizeRegion(region)]
	return ok
}

// Resolve returns the fee for sel. A region missing from the table costs 0;
// callers that want to refuse such regions check Known first.
func (t *Table) Resolve(sel Selection) int64 {
	switch sel.Method {
	case MethodPickup:
		return t.pickupFee
	case MethodDelivery:
		return t.regions[NormalizeRegion(sel.Region)]
	default:
		return 0
	}
}

// Regions lists the table sorted by key.
func (t *Table) Regions() []Region {
	out := make([]Region, 0, len(t.regions))
	for k, v := range t.regions {
		out = append(out, Region{Key: k, Fee: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
