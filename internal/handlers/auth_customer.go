package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/store"
)

type accountStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	TouchSignIn(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SaveRefreshToken(ctx context.Context, token models.RefreshToken) (primitive.ObjectID, error)
	FindRefreshToken(ctx context.Context, hash string) (models.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error
	RevokeRefreshTokenByHash(ctx context.Context, hash string) (bool, error)
}

type RegisterRequest struct {
	DisplayName string `json:"displayName" binding:"required,max=120"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Phone       string `json:"phone" binding:"omitempty,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type issuedTokens struct {
	AccessToken    string
	RefreshToken   string
	RefreshTokenID primitive.ObjectID
	ExpiresIn      int64
}

func (t issuedTokens) body(user models.User) gin.H {
	return gin.H{
		"accessToken":  t.AccessToken,
		"refreshToken": t.RefreshToken,
		"expiresIn":    t.ExpiresIn,
		"user":         user,
	}
}

func Register(accounts accountStore, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /account/register"
		defer handlePanic(c, route)

		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[AUTH] [ERROR] register password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		ctx := c.Request.Context()
		now := time.Now()
		user, err := accounts.CreateUser(ctx, models.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: string(hash),
			DisplayName:  strings.TrimSpace(req.DisplayName),
			Phone:        strings.TrimSpace(req.Phone),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if errors.Is(err, store.ErrEmailTaken) {
			respondWithError(c, http.StatusConflict, route, "email already registered")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] register insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		tokens, err := issueCustomerTokens(ctx, accounts, user, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] register token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] customer registered:", user.Email)
		c.JSON(http.StatusCreated, tokens.body(user))
	}
}

func Login(accounts accountStore, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /account/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		user, err := accounts.FindUserByEmail(ctx, req.Email)
		if errors.Is(err, store.ErrUserNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] login lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "invalid credentials")
			return
		}

		now := time.Now()
		if err := accounts.TouchSignIn(ctx, user.ID, now); err != nil {
			log.Println("[AUTH] [WARN] sign-in time not recorded:", err)
		} else {
			user.LastSignInAt = &now
		}

		tokens, err := issueCustomerTokens(ctx, accounts, user, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] login token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		log.Println("[AUTH] [INFO] customer login succeeded:", user.Email)
		c.JSON(http.StatusOK, tokens.body(user))
	}
}

// Refresh rotates a refresh token: the presented token is revoked and
// points at its replacement.
func Refresh(accounts accountStore, jwtSecret string, accessTTL, refreshTTL time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /account/refresh"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx := c.Request.Context()
		token, err := accounts.FindRefreshToken(ctx, hashToken(strings.TrimSpace(req.RefreshToken)))
		if errors.Is(err, store.ErrTokenNotFound) {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if time.Now().After(token.ExpiresAt) {
			if err := accounts.RevokeRefreshToken(ctx, token.ID, nil); err != nil {
				log.Println("[AUTH] [WARN] expired refresh token not revoked:", err)
			}
			respondWithError(c, http.StatusUnauthorized, route, "refresh token expired")
			return
		}

		user, err := accounts.FindUserByID(ctx, token.UserID)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "user not found")
			return
		}

		next, err := issueCustomerTokens(ctx, accounts, user, jwtSecret, accessTTL, refreshTTL)
		if err != nil {
			log.Println("[AUTH] [ERROR] refresh token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}
		if err := accounts.RevokeRefreshToken(ctx, token.ID, &next.RefreshTokenID); err != nil {
			log.Println("[AUTH] [WARN] rotated refresh token not revoked:", err)
		}

		c.JSON(http.StatusOK, next.body(user))
	}
}

func Logout(accounts accountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /account/logout"
		defer handlePanic(c, route)

		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		revoked, err := accounts.RevokeRefreshTokenByHash(c.Request.Context(), hashToken(strings.TrimSpace(req.RefreshToken)))
		if err != nil {
			log.Println("[AUTH] [ERROR] logout failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if !revoked {
			respondWithError(c, http.StatusUnauthorized, route, "invalid refresh token")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func issueCustomerTokens(ctx context.Context, accounts accountStore, user models.User, secret string, accessTTL, refreshTTL time.Duration) (issuedTokens, error) {
	if secret == "" {
		return issuedTokens{}, errors.New("jwt secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID.Hex(),
		"role":  middleware.CustomerRole,
		"email": user.Email,
		"exp":   now.Add(accessTTL).Unix(),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return issuedTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	plain, err := generateRefreshString()
	if err != nil {
		return issuedTokens{}, err
	}

	id, err := accounts.SaveRefreshToken(ctx, models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: now.Add(refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return issuedTokens{}, err
	}

	return issuedTokens{
		AccessToken:    accessToken,
		RefreshToken:   plain,
		RefreshTokenID: id,
		ExpiresIn:      int64(accessTTL.Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRefreshString() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
