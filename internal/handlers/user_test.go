package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type fakeCustomerOrders struct {
	byEmail map[string][]models.Order
	asked   string
}

func (f *fakeCustomerOrders) ListByCustomerEmail(_ context.Context, email string) ([]models.Order, error) {
	f.asked = email
	return append([]models.Order{}, f.byEmail[email]...), nil
}

type fakeCustomerMessages struct {
	byEmail map[string][]models.Message
}

func (f *fakeCustomerMessages) ListByCustomerEmail(_ context.Context, email string) ([]models.Message, error) {
	return append([]models.Message{}, f.byEmail[email]...), nil
}

// asCustomer stands in for CustomerAuth.
func asCustomer(id primitive.ObjectID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

func seedUser(accounts *fakeAccounts) models.User {
	u := models.User{ID: primitive.NewObjectID(), Email: "jane@example.com", DisplayName: "Jane Doe", CreatedAt: time.Now()}
	accounts.users[u.ID] = u
	return u
}

func TestGetMeAndUpdateProfile(t *testing.T) {
	accounts := newFakeAccounts()
	user := seedUser(accounts)

	r := gin.New()
	g := r.Group("/account", asCustomer(user.ID))
	g.GET("/me", GetMe(accounts))
	g.PUT("/profile", UpdateProfile(accounts))

	w := doJSON(t, r, http.MethodGet, "/account/me", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	decodeBody(t, w, &me)
	assert.Equal(t, "Jane Doe", me.DisplayName)

	w = doJSON(t, r, http.MethodPut, "/account/profile", "", gin.H{"displayName": " Jane W. ", "phone": "0711000000"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane W.", accounts.users[user.ID].DisplayName)
	assert.Equal(t, "0711000000", accounts.users[user.ID].Phone)

	w = doJSON(t, r, http.MethodPut, "/account/profile", "", gin.H{"phone": "0711000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMeWithoutAccount(t *testing.T) {
	r := gin.New()
	r.GET("/account/me", GetMe(newFakeAccounts()))
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodGet, "/account/me", "", nil).Code)

	r = gin.New()
	r.GET("/account/me", asCustomer(primitive.NewObjectID()), GetMe(newFakeAccounts()))
	assert.Equal(t, http.StatusNotFound, doJSON(t, r, http.MethodGet, "/account/me", "", nil).Code)
}

func TestCustomerDashboardListsOrdersAndMessagesByEmail(t *testing.T) {
	accounts := newFakeAccounts()
	user := seedUser(accounts)

	orders := &fakeCustomerOrders{byEmail: map[string][]models.Order{
		"jane@example.com":  {{OrderNumber: "TS2"}, {OrderNumber: "TS1"}},
		"other@example.com": {{OrderNumber: "TS9"}},
	}}
	messages := &fakeCustomerMessages{byEmail: map[string][]models.Message{
		"jane@example.com": {{Subject: "Lace colour"}},
	}}

	r := gin.New()
	g := r.Group("/account", asCustomer(user.ID))
	g.GET("/orders", GetMyOrders(accounts, orders))
	g.GET("/messages", GetMyMessages(accounts, messages))

	w := doJSON(t, r, http.MethodGet, "/account/orders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ordersBody struct {
		Orders []models.Order `json:"orders"`
		Total  int            `json:"total"`
	}
	decodeBody(t, w, &ordersBody)
	assert.Equal(t, 2, ordersBody.Total)
	assert.Equal(t, "TS2", ordersBody.Orders[0].OrderNumber)
	assert.Equal(t, "jane@example.com", orders.asked, "email comes from the account, not the request")

	w = doJSON(t, r, http.MethodGet, "/account/messages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messagesBody struct {
		Messages []models.Message `json:"messages"`
		Total    int              `json:"total"`
	}
	decodeBody(t, w, &messagesBody)
	assert.Equal(t, 1, messagesBody.Total)
	assert.Equal(t, "Lace colour", messagesBody.Messages[0].Subject)
}
