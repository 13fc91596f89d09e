package models

import "time"

// Variant is a purchasable lace size / length combination.
type Variant struct {
	ID       string `bson:"id" json:"id"`
	LaceSize string `bson:"laceSize" json:"laceSize"`
	InchSize string `bson:"inchSize" json:"inchSize"`
	Price    int64  `bson:"price" json:"price"`
	Stock    int    `bson:"stock" json:"stock"`
}

type ProductImage struct {
	URL          string `bson:"url" json:"url"`
	DisplayOrder int    `bson:"displayOrder" json:"displayOrder"`
}

type Product struct {
	ID          int64          `bson:"_id" json:"id"`
	Name        string         `bson:"name" json:"name"`
	Description string         `bson:"description,omitempty" json:"description,omitempty"`
	Category    string         `bson:"category" json:"category"`
	Rating      float64        `bson:"rating" json:"rating"`
	Reviews     int            `bson:"reviews" json:"reviews"`
	HasVideo    bool           `bson:"hasVideo" json:"hasVideo"`
	VideoLength string         `bson:"videoLength,omitempty" json:"videoLength,omitempty"`
	Variants    []Variant      `bson:"variants" json:"variants"`
	Images      []ProductImage `bson:"images" json:"images"`
	PriceFrom   int64          `bson:"-" json:"priceFrom"`
	InStock     bool           `bson:"-" json:"inStock"`
	CreatedAt   time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// FindVariant returns the variant with the given sizes.
func (p Product) FindVariant(laceSize, inchSize string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.LaceSize == laceSize && v.InchSize == inchSize {
			return v, true
		}
	}
	return Variant{}, false
}

// PrimaryImage is the image with the lowest display order.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	best := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.DisplayOrder < best.DisplayOrder {
			best = img
		}
	}
	return best.URL
}

// Counter backs integer id allocation.
type Counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}
