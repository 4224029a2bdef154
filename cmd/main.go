package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"malume-nico/internal/config"
	"malume-nico/internal/database"
	"malume-nico/internal/logger"
	"malume-nico/internal/messaging"
	"malume-nico/internal/pricing"
	"malume-nico/internal/realtime"
	"malume-nico/internal/services/menu"
	"malume-nico/internal/services/order"
)

func main() {
	log := logger.New("order-service")
	requestID := logger.GenerateRequestID()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config_load_failed", "Failed to load configuration", requestID, err, nil)
		os.Exit(1)
	}

	db, err := database.New(cfg, log)
	if err != nil {
		log.Error("db_connection_failed", "Failed to connect to database", requestID, err, nil)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(context.Background(), os.DirFS(cfg.MigrationsPath)); err != nil {
		log.Error("migrations_failed", "Failed to run migrations", requestID, err, nil)
		os.Exit(1)
	}

	// Kitchen ticket publishing is optional; without a broker URL orders
	// still flow, they just never reach the kitchen queue.
	var kitchen order.KitchenPublisher
	if cfg.KitchenEventsEnabled() {
		conn, err := messaging.New(cfg.RabbitMQURL, log)
		if err != nil {
			log.Error("rabbitmq_connection_failed", "Failed to connect to RabbitMQ", requestID, err, nil)
			os.Exit(1)
		}
		defer conn.Close()
		kitchen = messaging.NewPublisher(conn, log)
	} else {
		log.Info("kitchen_events_disabled", "RABBITMQ_URL not set, kitchen tickets disabled", requestID, nil)
	}

	hub := realtime.NewHub(log)
	wsHandler := realtime.NewHandler(hub, log)

	pricingCfg := pricing.Config{
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		DeliveryFee:           cfg.DeliveryFee,
	}

	orderRepo := order.NewRepository(db, pricingCfg)
	orderService := order.NewService(orderRepo, hub, kitchen, pricingCfg, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match"},
		ExposeHeaders:    []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	order.NewHandler(orderService, log).Register(router)
	menu.NewHandler(menu.NewRepository(db), log).Register(router)
	router.GET("/ws", wsHandler.Serve)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Info("server_starting", "HTTP server starting", requestID, map[string]interface{}{
			"port": cfg.Port,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server_failed", "HTTP server failed", requestID, err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("server_stopping", "Shutting down", requestID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown_failed", "Graceful shutdown failed", requestID, err, nil)
	}

	log.Info("server_stopped", "Server stopped", requestID, nil)
}
