package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/orders"
)

type orderTracker interface {
	Find(ctx context.Context, q orders.Query) (orders.TrackedOrder, error)
}

func TrackOrder(tracker orderTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/track"
		defer handlePanic(c, route)

		tracked, err := tracker.Find(c.Request.Context(), orders.Query{
			OrderNumber:  c.Query("orderNumber"),
			NameFragment: c.Query("name"),
		})
		switch {
		case errors.Is(err, orders.ErrEmptyQuery):
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		case errors.Is(err, orders.ErrNotFound):
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		case err != nil:
			log.Println("[TRACK] [ERROR] lookup failed:", err)
			respondWithError(c, http.StatusServiceUnavailable, route, "tracking unavailable")
			return
		}

		c.JSON(http.StatusOK, tracked)
	}
}
