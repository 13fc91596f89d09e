package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type profileStore interface {
	FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, phone string) (models.User, error)
}

type customerOrders interface {
	ListByCustomerEmail(ctx context.Context, email string) ([]models.Order, error)
}

type customerMessages interface {
	ListByCustomerEmail(ctx context.Context, email string) ([]models.Message, error)
}

type profileRequest struct {
	DisplayName string `json:"displayName" binding:"required,max=120"`
	Phone       string `json:"phone" binding:"omitempty,max=32"`
}

// currentUser loads the account behind the customer token. It writes the
// error response itself and returns false when the handler should stop.
func currentUser(c *gin.Context, route string, accounts profileStore) (models.User, bool) {
	userID, ok := middleware.CustomerID(c)
	if !ok {
		log.Println("[AUTH] [ERROR] userId missing in context")
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
		return models.User{}, false
	}

	user, err := accounts.FindUserByID(c.Request.Context(), userID)
	if errors.Is(err, store.ErrUserNotFound) {
		respondWithError(c, http.StatusNotFound, route, "user not found")
		return models.User{}, false
	}
	if err != nil {
		log.Println("[AUTH] [ERROR] get user failed:", err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.User{}, false
	}
	return user, true
}

func GetMe(accounts profileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /account/me"
		defer handlePanic(c, route)

		user, ok := currentUser(c, route, accounts)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateProfile(accounts profileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /account/profile"
		defer handlePanic(c, route)

		userID, ok := middleware.CustomerID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req profileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		user, err := accounts.UpdateProfile(c.Request.Context(), userID, strings.TrimSpace(req.DisplayName), strings.TrimSpace(req.Phone))
		if errors.Is(err, store.ErrUserNotFound) {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] profile update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// GetMyOrders lists the orders placed with the account's email, guest
// checkouts included.
func GetMyOrders(accounts profileStore, orders customerOrders) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /account/orders"
		defer handlePanic(c, route)

		user, ok := currentUser(c, route, accounts)
		if !ok {
			return
		}

		list, err := orders.ListByCustomerEmail(c.Request.Context(), user.Email)
		if err != nil {
			log.Println("[ORDER] [ERROR] customer orders failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": list, "total": len(list)})
	}
}

func GetMyMessages(accounts profileStore, messages customerMessages) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /account/messages"
		defer handlePanic(c, route)

		user, ok := currentUser(c, route, accounts)
		if !ok {
			return
		}

		list, err := messages.ListByCustomerEmail(c.Request.Context(), user.Email)
		if err != nil {
			log.Println("[MESSAGE] [ERROR] customer messages failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": list, "total": len(list)})
	}
}
