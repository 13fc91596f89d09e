package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type productFinder interface {
	FindProduct(ctx context.Context, id int64) (models.Product, error)
}

type cartItemRequest struct {
	ProductID int64  `json:"productId" binding:"required,min=1"`
	LaceSize  string `json:"laceSize" binding:"required"`
	InchSize  string `json:"inchSize" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=1000"`
}

type cartKeyRequest struct {
	ProductID int64  `json:"productId" binding:"required,min=1"`
	LaceSize  string `json:"laceSize" binding:"required"`
	InchSize  string `json:"inchSize" binding:"required"`
}

type variantNotFoundError struct {
	ProductID int64
	LaceSize  string
	InchSize  string
}

func (e variantNotFoundError) Error() string {
	return fmt.Sprintf("product %d has no %s / %s variant", e.ProductID, e.LaceSize, e.InchSize)
}

func cartResponse(session string, c cart.Cart) gin.H {
	if c == nil {
		c = cart.Cart{}
	}
	return gin.H{
		"session":   session,
		"items":     c,
		"itemCount": c.ItemCount(),
		"subtotal":  c.Subtotal(),
	}
}

// lineFromCatalog snapshots the product name, primary image and variant
// price at add time.
func lineFromCatalog(product models.Product, req cartItemRequest) (cart.Line, error) {
	lace := strings.TrimSpace(req.LaceSize)
	inch := strings.TrimSpace(req.InchSize)

	variant, ok := product.FindVariant(lace, inch)
	if !ok {
		return cart.Line{}, variantNotFoundError{ProductID: product.ID, LaceSize: lace, InchSize: inch}
	}

	return cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		ImageRef:  product.PrimaryImage(),
		LaceSize:  variant.LaceSize,
		InchSize:  variant.InchSize,
		UnitPrice: variant.Price,
		Quantity:  req.Quantity,
	}, nil
}

func GetCart(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		session := middleware.CartSessionID(c)
		current, err := carts.Load(c.Request.Context(), session)
		if err != nil {
			log.Println("[CART] [ERROR] load failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		c.JSON(http.StatusOK, cartResponse(session, current))
	}
}

func AddCartItem(carts cart.Store, products productFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		var req cartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		product, err := products.FindProduct(ctx, req.ProductID)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			log.Println("[CART] [ERROR] product lookup failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "catalog unavailable")
			return
		}

		line, err := lineFromCatalog(product, req)
		if err != nil {
			var variantErr variantNotFoundError
			if errors.As(err, &variantErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "variant not available",
					"productId": variantErr.ProductID,
					"laceSize":  variantErr.LaceSize,
					"inchSize":  variantErr.InchSize,
				})
				return
			}
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		session := middleware.CartSessionID(c)
		current, err := carts.Load(ctx, session)
		if err != nil {
			log.Println("[CART] [ERROR] load failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		next, err := cart.Add(current, line)
		if err != nil {
			var limitErr cart.QuantityLimitError
			if errors.As(err, &limitErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "quantity limit exceeded",
					"productId": limitErr.Key.ProductID,
					"limit":     cart.MaxLineQuantity,
				})
				return
			}
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if err := carts.Save(ctx, session, next); err != nil {
			log.Println("[CART] [ERROR] save failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		c.JSON(http.StatusOK, cartResponse(session, next))
	}
}

func RemoveCartItem(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items"
		defer handlePanic(c, route)

		var req cartKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		session := middleware.CartSessionID(c)
		current, err := carts.Load(ctx, session)
		if err != nil {
			log.Println("[CART] [ERROR] load failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		next := cart.Remove(current, cart.Key{
			ProductID: req.ProductID,
			LaceSize:  strings.TrimSpace(req.LaceSize),
			InchSize:  strings.TrimSpace(req.InchSize),
		})
		if err := carts.Save(ctx, session, next); err != nil {
			log.Println("[CART] [ERROR] save failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		c.JSON(http.StatusOK, cartResponse(session, next))
	}
}

func ClearCart(carts cart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		session := middleware.CartSessionID(c)
		if err := carts.Clear(c.Request.Context(), session); err != nil {
			log.Println("[CART] [ERROR] clear failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		c.JSON(http.StatusOK, cartResponse(session, nil))
	}
}
