package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/znasser/storefront/internal/cart"
	"github.com/znasser/storefront/internal/catalog"
	"github.com/znasser/storefront/internal/checkout"
	"github.com/znasser/storefront/internal/config"
	"github.com/znasser/storefront/internal/es"
	"github.com/znasser/storefront/internal/handlers"
	"github.com/znasser/storefront/internal/logging"
	loggingmw "github.com/znasser/storefront/internal/middleware/logging"
	"github.com/znasser/storefront/internal/mykafka"
	"github.com/znasser/storefront/internal/order"
	"github.com/znasser/storefront/internal/search"
	httpserver "github.com/znasser/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var prod *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		brokers := []string{configuration.KAFKA_ADDRESS}
		topics := []string{"cart_events", "order_events", "product_events"}
		prod, err = mykafka.NewProducer(brokers, topics)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events disabled")
	}

	storage := &cart.GormStorage{DB: db}

	catalogSvc := &catalog.Service{Repo: &catalog.GormRepo{DB: db}}
	orderSvc := &order.Service{Repo: &order.GormRepo{DB: db}}
	if prod != nil {
		catalogSvc.Producer = prod
		orderSvc.Producer = prod
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		catalogSvc.Index = &search.ProductIndex{ES: esClient, IndexName: "product"}
		searchHandler = &handlers.SearchHandler{ES: esClient, Index: "product"}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	cartHandler := &handlers.CartHandler{Storage: storage, Catalog: catalogSvc}
	if prod != nil {
		cartHandler.Producer = prod
	}

	deps := httpserver.Deps{
		AdminToken:      configuration.ADMIN_TOKEN,
		ProductHandler:  &handlers.ProductHandler{Svc: catalogSvc},
		CartHandler:     cartHandler,
		CheckoutHandler: &handlers.CheckoutHandler{Storage: storage, Validator: checkout.NewValidator(), Orders: orderSvc},
		OrderHandler:    &handlers.OrderHandler{Svc: orderSvc},
		SearchHandler:   searchHandler,
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db handle error", "error", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
