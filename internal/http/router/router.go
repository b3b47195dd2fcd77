package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/deevah-backend/internal/config"
	"github.com/ignatzorin/deevah-backend/internal/http/handlers"
	"github.com/ignatzorin/deevah-backend/internal/http/middleware"
)

// Handlers собирает хэндлеры, которые монтирует SetupRouter.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Catalog      *handlers.CatalogHandler
	Booking      *handlers.BookingHandler
	Wallet       *handlers.WalletHandler
	Feed         *handlers.FeedHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.AccessTokenParser) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.GET("/ws", h.WS.Handle)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты
	catalog := api.Group("/catalog")
	{
		catalog.GET("/services", h.Catalog.ListServices)
		catalog.GET("/services/:id", middleware.UUIDValidator("id"), h.Catalog.GetService)
		catalog.GET("/products", h.Catalog.ListProducts)
		catalog.GET("/restaurants", h.Catalog.ListRestaurants)
		catalog.GET("/restaurants/:id/meals", middleware.UUIDValidator("id"), h.Catalog.ListMeals)
	}

	feed := api.Group("/feed")
	feed.Use(middleware.OptionalAuth(tokens))
	{
		feed.GET("/posts", h.Feed.ListPosts)
		feed.GET("/posts/:id/comments", middleware.UUIDValidator("id"), h.Feed.ListComments)
	}

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/profile", h.Auth.Me)

		protected.POST("/catalog/services", h.Catalog.CreateService)

		protected.POST("/bookings", h.Booking.Create)
		protected.GET("/bookings", h.Booking.List)
		protected.GET("/bookings/spent", h.Booking.Spent)
		protected.GET("/bookings/:id", middleware.UUIDValidator("id"), h.Booking.Get)
		protected.PUT("/bookings/:id/status", middleware.UUIDValidator("id"), h.Booking.UpdateStatus)
		protected.GET("/bookings/:id/transitions", middleware.UUIDValidator("id"), h.Booking.Transitions)

		protected.GET("/wallet/balance", h.Wallet.Balance)
		protected.GET("/wallet/transactions", h.Wallet.Transactions)
		protected.GET("/wallet/reconcile", h.Wallet.Reconcile)
		protected.GET("/wallet/payment-methods", h.Wallet.ListPaymentMethods)
		protected.POST("/wallet/payment-methods", h.Wallet.AddPaymentMethod)
		protected.DELETE("/wallet/payment-methods/:id", middleware.UUIDValidator("id"), h.Wallet.RemovePaymentMethod)

		// Движение денег ограничено по пользователю.
		money := protected.Group("/wallet")
		money.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
		money.POST("/deposit", h.Wallet.Deposit)
		money.POST("/withdraw", h.Wallet.Withdraw)
		money.POST("/tip", h.Wallet.Tip)
		money.POST("/glow-coins/earn", h.Wallet.EarnGlowCoins)
		money.POST("/glow-coins/spend", h.Wallet.SpendGlowCoins)

		protected.POST("/feed/posts", h.Feed.CreatePost)
		protected.POST("/feed/posts/:id/like", middleware.UUIDValidator("id"), h.Feed.Like)
		protected.DELETE("/feed/posts/:id/like", middleware.UUIDValidator("id"), h.Feed.Unlike)
		protected.POST("/feed/posts/:id/comments", middleware.UUIDValidator("id"), h.Feed.AddComment)

		protected.GET("/notifications", h.Notification.ListNotifications)
		protected.GET("/notifications/unread/count", h.Notification.UnreadCount)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
	}

	return r
}
