package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
	"storefront/internal/pricing"
)

type orderPlacer interface {
	PlaceOrder(ctx context.Context, req orders.Request) (checkout.Result, error)
}

type checkoutRequest struct {
	CustomerName     string `json:"customerName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DeliveryMethod   string `json:"deliveryMethod"`
	County           string `json:"county"`
	PaymentReference string `json:"paymentReference"`
}

// selection never fails: an incomplete choice is passed on so the
// assembler reports it together with the other missing fields.
func (r checkoutRequest) selection() pricing.Selection {
	sel, err := pricing.ParseSelection(r.DeliveryMethod, r.County)
	if err != nil {
		return pricing.Selection{Method: pricing.Method(strings.ToLower(strings.TrimSpace(r.DeliveryMethod)))}
	}
	return sel
}

func GetDeliveryRegions(fees *pricing.Table) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"pickup": gin.H{
				"fee":      fees.PickupFee(),
				"location": pricing.PickupLocation,
			},
			"regions": fees.Regions(),
		})
	}
}

func Checkout(carts cart.Store, placer orderPlacer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /checkout"
		defer handlePanic(c, route)

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx := c.Request.Context()
		session := middleware.CartSessionID(c)
		current, err := carts.Load(ctx, session)
		if err != nil {
			log.Println("[CHECKOUT] [ERROR] cart load failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "cart unavailable")
			return
		}

		result, err := placer.PlaceOrder(ctx, orders.Request{
			Cart: current,
			Customer: models.Customer{
				Name:  req.CustomerName,
				Email: req.Email,
				Phone: req.Phone,
			},
			Delivery:         req.selection(),
			PaymentReference: req.PaymentReference,
		})
		if err != nil {
			var validationErr orders.ValidationError
			if errors.As(err, &validationErr) {
				log.Printf("[%s] returning error %d: %v", route, http.StatusBadRequest, err)
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error":  validationErr.Error(),
					"fields": validationErr.Fields,
				})
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "checkout failed")
			return
		}

		if err := carts.Clear(ctx, session); err != nil {
			log.Printf("[CHECKOUT] [WARN] cart %s not cleared after order %s: %v", session, result.Order.OrderNumber, err)
		}

		c.JSON(http.StatusCreated, result)
	}
}
