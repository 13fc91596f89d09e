package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type variantInput struct {
	ID       string `json:"id"`
	LaceSize string `json:"laceSize" binding:"required"`
	InchSize string `json:"inchSize" binding:"required"`
	Price    int64  `json:"price" binding:"min=0,max=100000000"`
	Stock    int    `json:"stock" binding:"min=0"`
}

type imageInput struct {
	URL          string `json:"url" binding:"required,url"`
	DisplayOrder int    `json:"displayOrder" binding:"min=0"`
}

type productInput struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	Category    string         `json:"category" binding:"required"`
	Rating      float64        `json:"rating" binding:"min=0,max=5"`
	Reviews     int            `json:"reviews" binding:"min=0"`
	HasVideo    bool           `json:"hasVideo"`
	VideoLength string         `json:"videoLength"`
	Variants    []variantInput `json:"variants" binding:"required,min=1,dive"`
	Images      []imageInput   `json:"images" binding:"omitempty,dive"`
}

type duplicateVariantError struct {
	LaceSize string
	InchSize string
}

func (e duplicateVariantError) Error() string {
	return fmt.Sprintf("duplicate variant %s / %s", e.LaceSize, e.InchSize)
}

// buildVariants trims the sizes, rejects duplicate size pairs and gives new
// variants an id.
func buildVariants(inputs []variantInput) ([]models.Variant, error) {
	seen := make(map[[2]string]struct{}, len(inputs))
	variants := make([]models.Variant, 0, len(inputs))

	for _, in := range inputs {
		lace := strings.TrimSpace(in.LaceSize)
		inch := strings.TrimSpace(in.InchSize)
		if lace == "" || inch == "" {
			return nil, fmt.Errorf("variant sizes are required")
		}
		key := [2]string{lace, inch}
		if _, ok := seen[key]; ok {
			return nil, duplicateVariantError{LaceSize: lace, InchSize: inch}
		}
		seen[key] = struct{}{}

		id := strings.TrimSpace(in.ID)
		if id == "" {
			id = uuid.NewString()
		}
		variants = append(variants, models.Variant{
			ID:       id,
			LaceSize: lace,
			InchSize: inch,
			Price:    in.Price,
			Stock:    in.Stock,
		})
	}
	return variants, nil
}

func (in productInput) toProduct() (models.Product, error) {
	variants, err := buildVariants(in.Variants)
	if err != nil {
		return models.Product{}, err
	}

	images := make([]models.ProductImage, 0, len(in.Images))
	for _, img := range in.Images {
		images = append(images, models.ProductImage{
			URL:          strings.TrimSpace(img.URL),
			DisplayOrder: img.DisplayOrder,
		})
	}

	return models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Rating:      in.Rating,
		Reviews:     in.Reviews,
		HasVideo:    in.HasVideo,
		VideoLength: strings.TrimSpace(in.VideoLength),
		Variants:    variants,
		Images:      images,
	}, nil
}

// normalizeProduct fills the read-only fields and orders the images.
func normalizeProduct(p *models.Product) {
	sort.SliceStable(p.Images, func(i, j int) bool {
		return p.Images[i].DisplayOrder < p.Images[j].DisplayOrder
	})
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	if p.Images == nil {
		p.Images = []models.ProductImage{}
	}

	p.PriceFrom = 0
	p.InStock = false
	for i, v := range p.Variants {
		if i == 0 || v.Price < p.PriceFrom {
			p.PriceFrom = v.Price
		}
		if v.Stock > 0 {
			p.InStock = true
		}
	}
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		normalizeProduct(&p)
		products = append(products, p)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
