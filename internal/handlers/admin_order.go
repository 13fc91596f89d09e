package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/orders"
)

type orderAdmin interface {
	ChangeStatus(ctx context.Context, id primitive.ObjectID, next models.OrderStatus, changedBy, notes string) (models.Order, error)
	History(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderHistory, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=500"`
}

type orderAnalytics struct {
	TotalRevenue      int64 `bson:"totalRevenue" json:"totalRevenue"`
	TotalOrders       int64 `bson:"totalOrders" json:"totalOrders"`
	AverageOrderValue int64 `bson:"-" json:"averageOrderValue"`
}

func adminOrderFilter(c *gin.Context) (bson.M, error) {
	filter := bson.M{}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return nil, err
		}
		filter["status"] = status
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := regexp.QuoteMeta(search)
		filter["$or"] = []bson.M{
			{"orderNumber": bson.M{"$regex": pattern, "$options": "i"}},
			{"customer.name": bson.M{"$regex": pattern, "$options": "i"}},
			{"customer.email": bson.M{"$regex": pattern, "$options": "i"}},
			{"paymentReference": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter, nil
}

func loadOrderAnalytics(ctx context.Context, db *mongo.Database, filter bson.M) (orderAnalytics, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":          nil,
			"totalRevenue": bson.M{"$sum": "$total"},
			"totalOrders":  bson.M{"$sum": 1},
		}}},
	}

	cursor, err := db.Collection("orders").Aggregate(ctx, pipeline)
	if err != nil {
		return orderAnalytics{}, err
	}
	defer cursor.Close(ctx)

	var stats orderAnalytics
	if cursor.Next(ctx) {
		if err := cursor.Decode(&stats); err != nil {
			return orderAnalytics{}, err
		}
	}
	if err := cursor.Err(); err != nil {
		return orderAnalytics{}, err
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / stats.TotalOrders
	}
	return stats, nil
}

func GetAdminOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter, err := adminOrderFilter(c)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		stats, err := loadOrderAnalytics(ctx, db, filter)
		if err != nil {
			log.Println("[ORDER] [ERROR] analytics failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		list := make([]models.Order, 0)
		if err := cursor.All(ctx, &list); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":      list,
			"analytics": stats,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      stats.TotalOrders,
				"totalPages": totalPages(stats.TotalOrders, limit),
			},
		})
	}
}

func UpdateOrderStatus(repo orderAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /admin/api/orders/:id/status"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req statusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		next, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		changedBy := c.GetString(middleware.AdminEmailKey)
		order, err := repo.ChangeStatus(c.Request.Context(), orderID, next, changedBy, strings.TrimSpace(req.Notes))
		if err != nil {
			var transitionErr models.TransitionError
			switch {
			case errors.Is(err, orders.ErrNotFound):
				respondWithError(c, http.StatusNotFound, route, "order not found")
			case errors.As(err, &transitionErr):
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"error": transitionErr.Error(),
					"from":  transitionErr.From,
					"to":    transitionErr.To,
				})
			default:
				log.Println("[ORDER] [ERROR] status change failed:", err)
				respondWithError(c, http.StatusInternalServerError, route, "db error")
			}
			return
		}

		log.Printf("[ORDER] [INFO] order %s moved to %s by %s", order.OrderNumber, order.Status, changedBy)
		c.JSON(http.StatusOK, order)
	}
}

func GetOrderHistory(repo orderAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/orders/:id/history"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		history, err := repo.History(c.Request.Context(), orderID)
		if err != nil {
			log.Println("[ORDER] [ERROR] history failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, history)
	}
}

func DeleteOrder(repo orderAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		err = repo.Delete(c.Request.Context(), orderID)
		if errors.Is(err, orders.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}
