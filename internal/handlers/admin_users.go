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
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type adminAccounts interface {
	ListAdmins(ctx context.Context) ([]models.Admin, error)
	FindAdmin(ctx context.Context, id primitive.ObjectID) (models.Admin, error)
	CreateAdmin(ctx context.Context, admin models.Admin) (models.Admin, error)
	UpdateAdmin(ctx context.Context, id primitive.ObjectID, patch store.AdminPatch) (models.Admin, error)
	DeleteAdmin(ctx context.Context, id primitive.ObjectID) error
	PromoteByEmail(ctx context.Context, email string) (models.Admin, error)
}

type userLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

type adminCreateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type adminUpdateRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	IsAdmin  *bool   `json:"isAdmin"`
}

type promoteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// userRow is a customer account as the back office sees it.
type userRow struct {
	models.User
	IsAdmin bool `json:"isAdmin"`
}

func parseAdminID(c *gin.Context, route string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

func respondAdminStoreError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, store.ErrAdminNotFound):
		respondWithError(c, http.StatusNotFound, route, "admin not found")
	case errors.Is(err, store.ErrAccountNotFound):
		respondWithError(c, http.StatusNotFound, route, "no account with that email")
	case errors.Is(err, store.ErrEmailTaken):
		respondWithError(c, http.StatusConflict, route, "email already registered")
	default:
		log.Println("[ADMIN] [ERROR] account store failed:", err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

// isSelf reports whether admin is the caller. Admins cannot delete or demote
// themselves, which keeps at least one working account.
func isSelf(c *gin.Context, admin models.Admin) bool {
	return strings.EqualFold(c.GetString(middleware.AdminEmailKey), admin.Email)
}

func GetAdmins(admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/admins"
		defer handlePanic(c, route)

		list, err := admins.ListAdmins(c.Request.Context())
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func CreateAdmin(admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/admins"
		defer handlePanic(c, route)

		var req adminCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		now := time.Now()
		admin, err := admins.CreateAdmin(c.Request.Context(), models.Admin{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			IsAdmin:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}

		log.Printf("[ADMIN] [INFO] %s created admin %s", c.GetString(middleware.AdminEmailKey), admin.Email)
		c.JSON(http.StatusCreated, gin.H{"success": true, "user": admin})
	}
}

func UpdateAdmin(admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/admins/:id"
		defer handlePanic(c, route)

		id, ok := parseAdminID(c, route)
		if !ok {
			return
		}

		var req adminUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		if req.IsAdmin != nil && !*req.IsAdmin {
			target, err := admins.FindAdmin(ctx, id)
			if err != nil {
				respondAdminStoreError(c, route, err)
				return
			}
			if isSelf(c, target) {
				respondWithError(c, http.StatusBadRequest, route, "cannot revoke your own admin rights")
				return
			}
		}

		patch := store.AdminPatch{Email: req.Email, IsAdmin: req.IsAdmin}
		if req.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
				return
			}
			hashed := string(hash)
			patch.PasswordHash = &hashed
		}

		admin, err := admins.UpdateAdmin(ctx, id, patch)
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "user": admin})
	}
}

func DeleteAdmin(admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/admins/:id"
		defer handlePanic(c, route)

		id, ok := parseAdminID(c, route)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		target, err := admins.FindAdmin(ctx, id)
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}
		if isSelf(c, target) {
			respondWithError(c, http.StatusBadRequest, route, "cannot delete your own account")
			return
		}

		if err := admins.DeleteAdmin(ctx, id); err != nil {
			respondAdminStoreError(c, route, err)
			return
		}

		log.Printf("[ADMIN] [INFO] %s deleted admin %s", c.GetString(middleware.AdminEmailKey), target.Email)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// PromoteAdmin grants admin rights to an existing admin or customer account
// by email.
func PromoteAdmin(admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/admins/promote"
		defer handlePanic(c, route)

		var req promoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		admin, err := admins.PromoteByEmail(c.Request.Context(), req.Email)
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}

		log.Printf("[ADMIN] [INFO] %s promoted %s", c.GetString(middleware.AdminEmailKey), admin.Email)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": admin})
	}
}

// GetUsers lists customer accounts and flags those that also hold admin
// rights.
func GetUsers(users userLister, admins adminAccounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/users"
		defer handlePanic(c, route)

		ctx := c.Request.Context()
		accounts, err := users.ListUsers(ctx)
		if err != nil {
			log.Println("[ADMIN] [ERROR] list users failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		adminList, err := admins.ListAdmins(ctx)
		if err != nil {
			respondAdminStoreError(c, route, err)
			return
		}

		active := make(map[string]bool, len(adminList))
		for _, a := range adminList {
			if a.IsAdmin {
				active[strings.ToLower(a.Email)] = true
			}
		}

		rows := make([]userRow, 0, len(accounts))
		for _, u := range accounts {
			rows = append(rows, userRow{User: u, IsAdmin: active[strings.ToLower(u.Email)]})
		}
		c.JSON(http.StatusOK, rows)
	}
}
