package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/models"
)

type settingsStore interface {
	All(ctx context.Context) ([]models.SiteSetting, error)
	Upsert(ctx context.Context, setting models.SiteSetting) (models.SiteSetting, error)
}

type settingRequest struct {
	Value json.RawMessage `json:"value"`
}

// GetSettings returns the public key to value map the storefront renders.
func GetSettings(settings settingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /settings"
		defer handlePanic(c, route)

		list, err := settings.All(c.Request.Context())
		if err != nil {
			log.Println("[SETTINGS] [ERROR] load failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		values := make(map[string]json.RawMessage, len(list))
		for _, s := range list {
			values[s.Key] = s.Value
		}
		c.JSON(http.StatusOK, values)
	}
}

// GetAdminSettings lists every editable key with its description, including
// keys that were never saved.
func GetAdminSettings(settings settingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/settings"
		defer handlePanic(c, route)

		list, err := settings.All(c.Request.Context())
		if err != nil {
			log.Println("[SETTINGS] [ERROR] load failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		saved := make(map[string]models.SiteSetting, len(list))
		for _, s := range list {
			saved[s.Key] = s
		}

		out := make([]models.SiteSetting, 0, len(models.SiteSettingKeys))
		for _, k := range models.SiteSettingKeys {
			s, ok := saved[k.Key]
			if !ok {
				s = models.SiteSetting{Key: k.Key, Value: json.RawMessage("null")}
			}
			s.Description = k.Description
			out = append(out, s)
		}
		c.JSON(http.StatusOK, out)
	}
}

func UpdateSetting(settings settingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/settings/:key"
		defer handlePanic(c, route)

		key := c.Param("key")
		description, ok := models.SiteSettingDescription(key)
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "unknown setting")
			return
		}

		var req settingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}
		value := bytes.TrimSpace(req.Value)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			respondWithError(c, http.StatusBadRequest, route, "value is required")
			return
		}

		saved, err := settings.Upsert(c.Request.Context(), models.SiteSetting{
			Key:         key,
			Value:       json.RawMessage(value),
			Description: description,
			UpdatedBy:   c.GetString(middleware.AdminEmailKey),
			UpdatedAt:   time.Now(),
		})
		if err != nil {
			log.Println("[SETTINGS] [ERROR] save failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[SETTINGS] [INFO] %s updated %s", saved.UpdatedBy, key)
		c.JSON(http.StatusOK, saved)
	}
}
