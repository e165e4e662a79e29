package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ignatzorin/koihire-backend/internal/config"
	"github.com/ignatzorin/koihire-backend/internal/http/handlers"
	"github.com/ignatzorin/koihire-backend/internal/http/middleware"
	"github.com/ignatzorin/koihire-backend/internal/service"
	"github.com/ignatzorin/koihire-backend/internal/telemetry"
)

// Handlers набор HTTP хэндлеров приложения.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Work         *handlers.WorkHandler
	Payment      *handlers.PaymentHandler
	Project      *handlers.ProjectHandler
	ServiceOrder *handlers.ServiceOrderHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
	Health       *handlers.HealthHandler
	Proxy        *handlers.ProxyHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(otelgin.Middleware(telemetry.ServiceName))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", h.WS.Handle)
	api.GET("/uploads/*path", h.Proxy.Uploads)
	// Авторизацию проверяет сервис откликов, заголовок передаётся как есть.
	api.GET("/projects/:id/applications", middleware.UUIDValidator("id"), h.Proxy.ProjectApplications)
	api.GET("/service-packages/:id", middleware.UUIDValidator("id"), h.ServiceOrder.GetPackage)
	api.GET("/freelancers/:id/service-packages", middleware.UUIDValidator("id"), h.ServiceOrder.ListPackages)

	// Оплата проекта идёт со страницы checkout, где есть только cookie сессии.
	checkout := api.Group("/payments/project")
	checkout.Use(middleware.CookieOrBearer(tokenManager, cfg.SessionCookieName))
	{
		checkout.POST("/create-payment-intent", h.Payment.CreatePaymentIntent)
		checkout.POST("/confirm", h.Payment.ConfirmPayment)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", h.Auth.Me)

		protected.GET("/freelancer/active-work", h.Work.ActiveWork)
		protected.GET("/work-notes/:itemType/:itemId", h.Work.GetNote)
		protected.POST("/work-notes/:itemType/:itemId", h.Work.SetNote)
		protected.DELETE("/work-notes/:itemType/:itemId", h.Work.DeleteNote)

		protected.GET("/payments/project/:projectId/breakdown", middleware.UUIDValidator("projectId"), h.Payment.Breakdown)
		protected.GET("/payments/escrow/project/:projectId", middleware.UUIDValidator("projectId"), h.Payment.GetProjectEscrow)
		protected.POST("/payments/escrow/:escrowId/release", middleware.UUIDValidator("escrowId"), h.Payment.Release)
		protected.POST("/payments/escrow/:escrowId/refund", middleware.UUIDValidator("escrowId"), h.Payment.Refund)
		protected.POST("/payments/escrow/:escrowId/dispute", middleware.UUIDValidator("escrowId"), h.Payment.Dispute)
		protected.GET("/payments/transactions", h.Payment.ListTransactions)
		protected.GET("/payments/earnings", h.Payment.Earnings)
		protected.POST("/payments/connect/create-account", h.Payment.CreateConnectAccount)
		protected.GET("/payments/connect/status", h.Payment.ConnectStatus)

		protected.POST("/projects", h.Project.Create)
		protected.GET("/projects/my", h.Project.ListMine)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), h.Project.Get)
		protected.POST("/projects/:id/hire", middleware.UUIDValidator("id"), h.Project.Hire)
		protected.PATCH("/projects/:id/status", middleware.UUIDValidator("id"), h.Project.UpdateStatus)

		protected.POST("/service-packages", h.ServiceOrder.CreatePackage)
		protected.POST("/service-orders", h.ServiceOrder.CreateOrder)
		protected.GET("/service-orders/my", h.ServiceOrder.ListMine)
		protected.GET("/service-orders/:id", middleware.UUIDValidator("id"), h.ServiceOrder.GetOrder)
		protected.PATCH("/service-orders/:id/status", middleware.UUIDValidator("id"), h.ServiceOrder.UpdateStatus)

		protected.GET("/notifications", h.Notification.List)
		protected.GET("/notifications/unread/count", h.Notification.CountUnread)
		protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), h.Notification.Delete)
	}

	return r
}
