package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI        string
	DBName          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Port            string

	RedisURL string
	CartTTL  time.Duration

	TelegramBotToken string
	TelegramChatID   string
	TelegramAPIBase  string

	StoreCode            string
	PickupFee            int64
	RejectUnknownRegions bool

	NotifyTimeout     time.Duration
	SystemSenderEmail string

	AdminEmail    string
	AdminPassword string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:        getEnvOrDefault("MONGO_URI", ""),
		DBName:          getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
		AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 60, time.Minute),
		RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 720, time.Hour),
		Port:            getEnvOrDefault("PORT", "8080"),

		RedisURL: getEnvOrDefault("REDIS_URL", ""),
		CartTTL:  getDurationEnv("CART_TTL", 72, time.Hour),

		TelegramBotToken: getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnvOrDefault("TELEGRAM_CHAT_ID", ""),
		TelegramAPIBase:  getEnvOrDefault("TELEGRAM_API_BASE", "https://api.telegram.org"),

		StoreCode:            getEnvOrDefault("STORE_CODE", "TS"),
		PickupFee:            int64(getIntEnv("PICKUP_FEE", 120)),
		RejectUnknownRegions: getBoolEnv("REJECT_UNKNOWN_REGIONS", false),

		NotifyTimeout:     getDurationEnv("NOTIFY_TIMEOUT", 5, time.Second),
		SystemSenderEmail: getEnvOrDefault("SYSTEM_SENDER_EMAIL", "system@timelessstrands.com"),

		AdminEmail:    getEnvOrDefault("ADMIN_EMAIL", ""),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", ""),
	}

	if AppEnv.JWTSecret == "" {
		log.Println("[CONFIG] [WARN] JWT_SECRET is empty, admin and account routes will reject every token")
	}
	if AppEnv.TelegramBotToken == "" || AppEnv.TelegramChatID == "" {
		log.Println("[CONFIG] [WARN] telegram relay not configured, order webhooks will fail")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
