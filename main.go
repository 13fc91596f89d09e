package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/external/telegram"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/orders"
	"storefront/internal/pricing"
	"storefront/internal/store"
)

func newCartStore() cart.Store {
	if config.AppEnv.RedisURL == "" {
		log.Println("[CART] [INFO] REDIS_URL not set, carts kept in memory")
		return cart.NewMemoryStore(config.AppEnv.CartTTL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := cart.ConnectRedis(ctx, config.AppEnv.RedisURL)
	if err != nil {
		log.Printf("[CART] [WARN] redis unavailable, carts kept in memory: %v", err)
		return cart.NewMemoryStore(config.AppEnv.CartTTL)
	}
	log.Println("[CART] [INFO] carts stored in redis")
	return cart.NewRedisStore(client, config.AppEnv.CartTTL)
}

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureMessageIndexes(db); err != nil {
		log.Printf("⚠️ message index warning: %v", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		log.Printf("⚠️ admin index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureAdmin(db, config.AppEnv.AdminEmail, config.AppEnv.AdminPassword); err != nil {
		log.Printf("⚠️ bootstrap admin warning: %v", err)
	}

	carts := newCartStore()
	fees := pricing.NewTable(config.AppEnv.PickupFee)
	orderRepo := store.NewOrderRepository(db)
	productRepo := store.NewProductRepository(db)
	messageRepo := store.NewMessageRepository(db)
	userRepo := store.NewUserRepository(db)
	adminRepo := store.NewAdminRepository(db)
	settingsRepo := store.NewSettingsRepository(db)

	bot := telegram.NewBot(
		config.AppEnv.TelegramBotToken,
		config.AppEnv.TelegramChatID,
		config.AppEnv.TelegramAPIBase,
	)
	dispatcher := notify.NewDispatcher(
		notify.NewTelegramRelay(bot),
		store.NewAdminInbox(db),
		config.AppEnv.SystemSenderEmail,
		config.AppEnv.NotifyTimeout,
	)

	assembler := orders.NewAssembler(
		fees,
		orders.NewNumberGenerator(config.AppEnv.StoreCode),
		orders.WithUnknownRegionRejection(config.AppEnv.RejectUnknownRegions),
	)
	checkoutService := checkout.NewService(assembler, orderRepo, dispatcher)
	lookup := orders.NewLookup(orderRepo)

	r := gin.Default()

	r.GET("/health", handlers.Health(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))
	r.GET("/delivery/regions", handlers.GetDeliveryRegions(fees))

	shop := r.Group("/")
	shop.Use(middleware.CartSession())
	{
		shop.GET("/cart", handlers.GetCart(carts))
		shop.POST("/cart/items", handlers.AddCartItem(carts, productRepo))
		shop.DELETE("/cart/items", handlers.RemoveCartItem(carts))
		shop.DELETE("/cart", handlers.ClearCart(carts))
		shop.POST("/checkout", handlers.Checkout(carts, checkoutService))
	}

	r.GET("/orders/track", handlers.TrackOrder(lookup))
	r.POST("/notifications/orders", handlers.NotifyOrder(dispatcher))
	r.POST("/messages", handlers.CreateMessage(messageRepo))
	r.GET("/settings", handlers.GetSettings(settingsRepo))

	jwtSecret := config.AppEnv.JWTSecret
	accessTTL, refreshTTL := config.AppEnv.AccessTokenTTL, config.AppEnv.RefreshTokenTTL

	r.POST("/account/register", handlers.Register(userRepo, jwtSecret, accessTTL, refreshTTL))
	r.POST("/account/login", handlers.Login(userRepo, jwtSecret, accessTTL, refreshTTL))
	r.POST("/account/refresh", handlers.Refresh(userRepo, jwtSecret, accessTTL, refreshTTL))
	r.POST("/account/logout", handlers.Logout(userRepo))

	account := r.Group("/account")
	account.Use(middleware.CustomerAuth(jwtSecret))
	{
		account.GET("/me", handlers.GetMe(userRepo))
		account.PUT("/profile", handlers.UpdateProfile(userRepo))
		account.GET("/orders", handlers.GetMyOrders(userRepo, orderRepo))
		account.GET("/messages", handlers.GetMyMessages(userRepo, messageRepo))
	}

	r.POST("/admin/login", handlers.AdminLogin(db, jwtSecret, accessTTL))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(jwtSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true, "email": c.GetString(middleware.AdminEmailKey)})
		})

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/orders", handlers.GetAdminOrders(db))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orderRepo))
		admin.GET("/orders/:id/history", handlers.GetOrderHistory(orderRepo))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(orderRepo))

		admin.GET("/messages", handlers.GetMessages(messageRepo))
		admin.PATCH("/messages/:id", handlers.UpdateMessage(messageRepo))
		admin.DELETE("/messages/:id", handlers.DeleteMessage(messageRepo))

		admin.GET("/admins", handlers.GetAdmins(adminRepo))
		admin.POST("/admins", handlers.CreateAdmin(adminRepo))
		admin.POST("/admins/promote", handlers.PromoteAdmin(adminRepo))
		admin.PUT("/admins/:id", handlers.UpdateAdmin(adminRepo))
		admin.DELETE("/admins/:id", handlers.DeleteAdmin(adminRepo))
		admin.GET("/users", handlers.GetUsers(userRepo, adminRepo))

		admin.GET("/settings", handlers.GetAdminSettings(settingsRepo))
		admin.PUT("/settings/:key", handlers.UpdateSetting(settingsRepo))
	}

	if err := r.Run(":" + config.AppEnv.Port); err != nil {
		log.Fatal(err)
	}
}
