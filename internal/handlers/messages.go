package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/store"
)

type messageBoard interface {
	Insert(ctx context.Context, msg models.Message) (models.Message, error)
	List(ctx context.Context, filter store.MessageFilter) ([]models.Message, error)
	Update(ctx context.Context, id primitive.ObjectID, next models.MessageStatus, response *string) (models.Message, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type contactRequest struct {
	CustomerName  string `json:"customerName" binding:"required,max=120"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
	CustomerPhone string `json:"customerPhone" binding:"omitempty,max=32"`
	Subject       string `json:"subject" binding:"required,max=200"`
	Message       string `json:"message" binding:"required,max=5000"`
}

type messageUpdateRequest struct {
	Status        string  `json:"status" binding:"required,oneof=unread read responded"`
	AdminResponse *string `json:"adminResponse"`
}

// CreateMessage stores a customer contact form submission.
func CreateMessage(board messageBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /messages"
		defer handlePanic(c, route)

		var req contactRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		if strings.EqualFold(strings.TrimSpace(req.CustomerName), models.SystemSenderName) {
			respondWithError(c, http.StatusBadRequest, route, "invalid customerName")
			return
		}

		now := time.Now()
		msg, err := board.Insert(c.Request.Context(), models.Message{
			CustomerName:  strings.TrimSpace(req.CustomerName),
			CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
			CustomerPhone: strings.TrimSpace(req.CustomerPhone),
			Subject:       strings.TrimSpace(req.Subject),
			Body:          strings.TrimSpace(req.Message),
			Status:        models.MessageUnread,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		if err != nil {
			log.Println("[MESSAGE] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusCreated, msg)
	}
}

func GetMessages(board messageBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/messages"
		defer handlePanic(c, route)

		var filter store.MessageFilter
		if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
			status, ok := models.ParseMessageStatus(raw)
			if !ok {
				respondWithError(c, http.StatusBadRequest, route, "invalid status")
				return
			}
			filter.Status = status
		}
		switch strings.TrimSpace(c.Query("system")) {
		case "true":
			system := true
			filter.System = &system
		case "false":
			system := false
			filter.System = &system
		}

		messages, err := board.List(c.Request.Context(), filter)
		if err != nil {
			log.Println("[MESSAGE] [ERROR] list failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, messages)
	}
}

// UpdateMessage moves a message forward through unread, read and responded.
// Backward moves answer 409.
func UpdateMessage(board messageBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/messages/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req messageUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		updated, err := board.Update(c.Request.Context(), id, models.MessageStatus(req.Status), req.AdminResponse)
		if err != nil {
			var transitionErr models.MessageTransitionError
			switch {
			case errors.Is(err, store.ErrMessageNotFound):
				respondWithError(c, http.StatusNotFound, route, "message not found")
			case errors.As(err, &transitionErr):
				c.JSON(http.StatusConflict, gin.H{
					"error": transitionErr.Error(),
					"from":  transitionErr.From,
					"to":    transitionErr.To,
				})
			default:
				log.Println("[MESSAGE] [ERROR] update failed:", err)
				respondWithError(c, http.StatusInternalServerError, route, "db error")
			}
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

func DeleteMessage(board messageBoard) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/messages/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		if err := board.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, store.ErrMessageNotFound) {
				respondWithError(c, http.StatusNotFound, route, "message not found")
				return
			}
			log.Println("[MESSAGE] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
	}
}
