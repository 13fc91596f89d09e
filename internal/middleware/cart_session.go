package middleware

import (
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionKey    = "cartSession"
)

// CartSession resolves the shopper's cart id from the request header. A
// missing or malformed id is replaced by a fresh one, which is echoed back
// so the client can keep using it.
func CartSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(CartSessionHeader))

		id, err := uuid.Parse(raw)
		if err != nil {
			if raw != "" {
				log.Println("[CART] [WARN] invalid cart session, issuing a new one")
			}
			id = uuid.New()
		}

		session := id.String()
		c.Set(CartSessionKey, session)
		c.Header(CartSessionHeader, session)
		c.Next()
	}
}

// CartSessionID returns the id set by CartSession.
func CartSessionID(c *gin.Context) string {
	return c.GetString(CartSessionKey)
}
