package handlers

import (
	"net/http"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/core/access"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/feed"
	mw "github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps is everything the API needs. A nil *Deps starts the server in
// degraded mode, answering 503 on every API route.
type Deps struct {
	Orders   repository.OrderRepository
	Invoices repository.InvoiceRepository
	Products repository.ProductRepository
	Carts    repository.CartRepository

	Settings *StoreSettings
	Feed     feed.Subscriber
	Verifier mw.TokenVerifier
	Numbers  *invoicing.Generator
	Storage  Uploader

	StripeSecretKey     string
	StripeWebhookSecret string

	// Now and CountdownTick override the clock and the countdown interval.
	Now           func() time.Time
	CountdownTick time.Duration
}

func SetupRoutes(router *gin.Engine, deps *Deps) {
	logrus.Info("Setting up routes...")

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Server is running!",
			"status":  "ok",
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "harvest-backend",
		})
	})

	if deps == nil {
		logrus.Warn("Database not connected - running with limited functionality")
		router.Any("/api/*path", func(c *gin.Context) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"message": "The server is running but could not connect to the database. Please check server logs.",
			})
		})
		return
	}

	orderHandler := NewOrderHandler(deps.Orders, deps.Settings)
	deliveryHandler := NewDeliveryHandler(deps.Orders, deps.Settings, deps.Feed)
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Orders, deps.Numbers)
	settingsHandler := NewSettingsHandler(deps.Settings)
	productHandler := NewProductHandler(deps.Products)
	cartHandler := NewCartHandler(deps.Carts, deps.Products)
	checkoutHandler := NewCheckoutHandler(deps.Orders, deps.Carts, deps.Settings)
	paymentHandler := NewPaymentHandler(deps.Orders, deps.StripeSecretKey, deps.StripeWebhookSecret)
	uploadHandler := NewUploadHandler(deps.Storage)
	if deps.Now != nil {
		orderHandler.Now = deps.Now
		deliveryHandler.Now = deps.Now
		checkoutHandler.Now = deps.Now
	}
	if deps.CountdownTick > 0 {
		orderHandler.Tick = deps.CountdownTick
	}

	// Public Product Routes
	publicProductGroup := router.Group("/api/v1/public/products")
	{
		publicProductGroup.GET("", productHandler.FetchProductsPublic)
		publicProductGroup.GET("/:id", productHandler.FetchProductPublicById)
	}

	// Public Webhook
	router.POST("/api/v1/payments/webhook", paymentHandler.HandleWebhook)

	protected := router.Group("/api/v1")
	protected.Use(mw.AuthMiddleware(deps.Verifier))
	{
		orders := protected.Group("/orders")
		orders.Use(mw.RequireCapability(access.ViewOrders))
		{
			orders.GET("", orderHandler.GetOrders)
			orders.GET("/:id", orderHandler.GetOrderById)
			orders.GET("/:id/cancel-window", orderHandler.GetCancelWindow)
			orders.GET("/:id/cancel-window/stream", orderHandler.StreamCancelWindow)
			orders.POST("/:id/cancel", mw.RequireCapability(access.CancelOwnOrder), orderHandler.CancelOrder)
			orders.PUT("/:id/status", mw.RequireCapability(access.UpdateOrderStatus), orderHandler.UpdateStatus)
		}

		delivery := protected.Group("/delivery")
		delivery.Use(mw.RequireCapability(access.ViewDeliveryDashboard))
		{
			delivery.GET("/orders", deliveryHandler.GetOrders)
			delivery.GET("/orders/stream", deliveryHandler.StreamOrders)
			delivery.GET("/summary", deliveryHandler.GetSummary)
			delivery.POST("/orders/:id/deliver", mw.RequireCapability(access.MarkDelivered), deliveryHandler.MarkDelivered)
		}

		invoices := protected.Group("/invoices")
		invoices.Use(mw.RequireCapability(access.ManageInvoices))
		{
			invoices.POST("", invoiceHandler.CreateInvoice)
			invoices.POST("/preview", invoiceHandler.PreviewInvoice)
			invoices.POST("/from-order/:id", invoiceHandler.CreateFromOrder)
			invoices.GET("", invoiceHandler.GetInvoices)
			invoices.GET("/:id", invoiceHandler.GetInvoiceById)
			invoices.PUT("/:id", invoiceHandler.UpdateInvoice)
		}

		products := protected.Group("/products")
		products.Use(mw.RequireCapability(access.ManageProducts))
		{
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
		}

		carts := protected.Group("/cart")
		carts.Use(mw.RequireCapability(access.Checkout))
		{
			carts.POST("", cartHandler.AddToCart)
			carts.DELETE("/:id", cartHandler.RemoveFromCart)
			carts.GET("", cartHandler.GetCart)
			carts.PUT("/:id", cartHandler.UpdateQuantity)
			carts.DELETE("", cartHandler.ClearCart)
		}
		protected.POST("/checkout", mw.RequireCapability(access.Checkout), checkoutHandler.Checkout)
		protected.POST("/payments/create-intent", mw.RequireCapability(access.Checkout), paymentHandler.CreatePaymentIntent)

		protected.POST("/upload", mw.RequireCapability(access.UploadMedia), uploadHandler.UploadImage)

		protected.GET("/settings", mw.RequireCapability(access.ViewOrders), settingsHandler.GetSettings)
		protected.PUT("/settings", mw.RequireCapability(access.ManageSettings), settingsHandler.UpdateSettings)
	}
}
