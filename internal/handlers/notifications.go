package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/notify"
)

type orderNotifier interface {
	Notify(ctx context.Context, order models.Order) notify.Outcome
}

// NotifyOrder relays an already placed order to both notification channels.
// It answers 200 when either channel got through and 500 otherwise.
func NotifyOrder(notifier orderNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /notifications/orders"
		defer handlePanic(c, route)

		var order models.Order
		if err := c.ShouldBindJSON(&order); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}
		if strings.TrimSpace(order.OrderNumber) == "" ||
			strings.TrimSpace(order.Customer.Name) == "" ||
			len(order.Items) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "Missing required order data")
			return
		}

		log.Println("[NOTIFY] [INFO] processing order notification for:", order.OrderNumber)
		outcome := notifier.Notify(c.Request.Context(), order)
		if outcome.Errors == nil {
			outcome.Errors = []string{}
		}

		body := gin.H{
			"success":       outcome.Success(),
			"notifications": outcome,
		}
		if len(outcome.Errors) > 0 {
			body["details"] = outcome.Errors
		}

		if !outcome.Success() {
			body["message"] = "All notification methods failed"
			c.JSON(http.StatusInternalServerError, body)
			return
		}
		body["message"] = "Order notifications processed"
		c.JSON(http.StatusOK, body)
	}
}
