package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/notify"
)

type fakeNotifier struct {
	outcome notify.Outcome
	seen    []models.Order
}

func (f *fakeNotifier) Notify(_ context.Context, order models.Order) notify.Outcome {
	f.seen = append(f.seen, order)
	return f.outcome
}

func notifyRouter(n orderNotifier) *gin.Engine {
	r := gin.New()
	r.POST("/notifications/orders", NotifyOrder(n))
	return r
}

func relayPayload() gin.H {
	return gin.H{
		"orderNumber": "TS1710408600000",
		"customer":    gin.H{"customerName": "Jane Doe", "email": "jane@example.com", "phone": "0712345678"},
		"items": []gin.H{
			{"productId": 7, "name": "Body Wave", "laceSize": "4x4 Closure", "inchSize": "16 inches", "price": 8505, "quantity": 2},
		},
		"delivery":         gin.H{"method": "pickup"},
		"subtotal":         17010,
		"deliveryFee":      120,
		"total":            17130,
		"paymentReference": "RBK1A2B3C4",
	}
}

type relayResponse struct {
	Success       bool           `json:"success"`
	Notifications notify.Outcome `json:"notifications"`
	Message       string         `json:"message"`
	Details       []string       `json:"details"`
}

func TestNotifyOrderPartialSuccess(t *testing.T) {
	n := &fakeNotifier{outcome: notify.Outcome{AdminInboxOK: true, Errors: []string{"Telegram: bot blocked"}}}

	w := doJSON(t, notifyRouter(n), http.MethodPost, "/notifications/orders", "", relayPayload())
	require.Equal(t, http.StatusOK, w.Code)

	var body relayResponse
	decodeBody(t, w, &body)
	assert.True(t, body.Success)
	assert.False(t, body.Notifications.WebhookOK)
	assert.True(t, body.Notifications.AdminInboxOK)
	assert.Equal(t, []string{"Telegram: bot blocked"}, body.Details)

	require.Len(t, n.seen, 1)
	assert.Equal(t, "Jane Doe", n.seen[0].Customer.Name)
	assert.Equal(t, int64(17130), n.seen[0].Total)
}

func TestNotifyOrderAllFailed(t *testing.T) {
	n := &fakeNotifier{outcome: notify.Outcome{Errors: []string{"Telegram: x", "Admin: y"}}}

	w := doJSON(t, notifyRouter(n), http.MethodPost, "/notifications/orders", "", relayPayload())
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body relayResponse
	decodeBody(t, w, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "All notification methods failed", body.Message)
	assert.Len(t, body.Details, 2)
}

func TestNotifyOrderRequiresOrderData(t *testing.T) {
	for _, field := range []string{"orderNumber", "customer", "items"} {
		t.Run(field, func(t *testing.T) {
			n := &fakeNotifier{}
			payload := relayPayload()
			delete(payload, field)

			w := doJSON(t, notifyRouter(n), http.MethodPost, "/notifications/orders", "", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, n.seen)
		})
	}
}
