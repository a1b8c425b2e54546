package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freshroots/harvest-backend/internal/adapters/repository"
	"github.com/freshroots/harvest-backend/internal/config"
	"github.com/freshroots/harvest-backend/internal/core/invoicing"
	"github.com/freshroots/harvest-backend/internal/feed"
	"github.com/freshroots/harvest-backend/internal/handlers"
	"github.com/freshroots/harvest-backend/internal/middleware"
	"github.com/freshroots/harvest-backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging()
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	client, db, err := repository.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
	cancel()

	hub := feed.NewHub()
	defer hub.Close()

	if err != nil {
		logrus.WithError(err).Error("Failed to connect to MongoDB")
		handlers.SetupRoutes(router, nil)
	} else {
		logrus.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
		defer disconnect(client)
		handlers.SetupRoutes(router, buildDeps(cfg, db, hub))

		source := &feed.MongoSource{Coll: db.Collection("orders"), Out: hub}
		go func() {
			if err := source.Run(ctx); err != nil {
				logrus.WithError(err).Warn("Order change stream unavailable, using write notifications only")
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Infof("Server starting on port %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Streams only end once their subscriptions close.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
}

func buildDeps(cfg config.Config, db *mongo.Database, hub *feed.Hub) *handlers.Deps {
	loc := cfg.Location()
	return &handlers.Deps{
		Orders:   repository.NewOrderRepository(db, hub),
		Invoices: repository.NewInvoiceRepository(db),
		Products: repository.NewProductRepository(db),
		Carts:    repository.NewCartRepository(db),
		Settings: &handlers.StoreSettings{
			Repo:     repository.NewSettingsRepository(db),
			Defaults: cfg.StoreDefaults(),
			Location: loc,
		},
		Feed:     hub,
		Verifier: utils.TokenVerifier{Secret: []byte(cfg.JWTSecret)},
		Numbers:  invoicing.NewGenerator(loc, time.Now().UnixNano()),
		Storage: utils.CloudinaryUploader{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		},
		StripeSecretKey:     cfg.StripeSecretKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func disconnect(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logrus.WithError(err).Warn("MongoDB disconnect failed")
	}
}
