package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func adminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminAuth(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(AdminEmailKey))
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	valid := signed(t, jwt.MapClaims{
		"role":  "admin",
		"email": "owner@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	customer := signed(t, jwt.MapClaims{
		"role": "customer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	expired := signed(t, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + customer, http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			adminRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "owner@example.com", w.Body.String())
			}
		})
	}
}

func TestCustomerAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/account", CustomerAuth(testSecret), func(c *gin.Context) {
		id, ok := CustomerID(c)
		assert.True(t, ok)
		c.String(http.StatusOK, id.Hex()+" "+c.GetString(UserEmailKey))
	})

	userID := primitive.NewObjectID()
	exp := time.Now().Add(time.Hour).Unix()
	valid := signed(t, jwt.MapClaims{"sub": userID.Hex(), "role": "customer", "email": "jane@example.com", "exp": exp})
	admin := signed(t, jwt.MapClaims{"sub": userID.Hex(), "role": "admin", "exp": exp})
	noSub := signed(t, jwt.MapClaims{"role": "customer", "exp": exp})
	badSub := signed(t, jwt.MapClaims{"sub": "not-an-id", "role": "customer", "exp": exp})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"admin token", "Bearer " + admin, http.StatusForbidden},
		{"no subject", "Bearer " + noSub, http.StatusUnauthorized},
		{"bad subject", "Bearer " + badSub, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/account", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.Hex()+" jane@example.com", w.Body.String())
			}
		})
	}
}

func TestCartSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/cart", CartSession(), func(c *gin.Context) {
		c.String(http.StatusOK, CartSessionID(c))
	})

	t.Run("keeps a valid id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.Header.Set(CartSessionHeader, id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, id, w.Body.String())
		assert.Equal(t, id, w.Header().Get(CartSessionHeader))
	})

	t.Run("issues a new id", func(t *testing.T) {
		for _, header := range []string{"", "not-a-uuid"} {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			req.Header.Set(CartSessionHeader, header)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			issued := w.Header().Get(CartSessionHeader)
			_, err := uuid.Parse(issued)
			require.NoError(t, err)
			assert.NotEqual(t, header, issued)
			assert.Equal(t, issued, w.Body.String())
		}
	})
}
