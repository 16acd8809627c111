package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/GongoraLeo/spherework-sub000/internal/config"
	"github.com/GongoraLeo/spherework-sub000/internal/es"
	"github.com/GongoraLeo/spherework-sub000/internal/handlers"
	"github.com/GongoraLeo/spherework-sub000/internal/httpserver"
	"github.com/GongoraLeo/spherework-sub000/internal/logging"
	authmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/auth"
	loggingmw "github.com/GongoraLeo/spherework-sub000/internal/middleware/logging"
	"github.com/GongoraLeo/spherework-sub000/internal/mykafka"
	"github.com/GongoraLeo/spherework-sub000/internal/repo"
	"github.com/GongoraLeo/spherework-sub000/internal/service/cart"
	"github.com/GongoraLeo/spherework-sub000/internal/service/order"
	"github.com/GongoraLeo/spherework-sub000/internal/service/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	jwtSecret := []byte(cfg.JWT_SECRET)
	refreshSecret := []byte(cfg.REFRESH_SECRET)

	var prod *mykafka.Producer
	if len(cfg.KAFKA_BROKERS) > 0 {
		topics := []string{"user_events", "book_events", "cart_events", "order_events"}
		prod, err = mykafka.NewProducer(cfg.KAFKA_BROKERS, topics)
		if err != nil {
			log.Fatalf("kafka init error: %v", err)
		}
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events disabled")
	}

	var esClient *elasticsearch.Client
	if cfg.ES_URL != "" {
		esClient, err = es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	} else {
		logger.Warn("ES_URL not set, search disabled")
	}

	tokens := &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	gormRepo := &repo.GormRepo{DB: db}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		AuthHandler:      &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		BookHandler:      &handlers.BookHandler{DB: db, Producer: prod, ES: esClient, Index: "books"},
		AuthorHandler:    &handlers.AuthorHandler{DB: db},
		PublisherHandler: &handlers.PublisherHandler{DB: db},
		ReviewHandler:    &handlers.ReviewHandler{DB: db},
		SearchHandler:    &handlers.SearchHandler{ES: esClient, Index: "books"},
		CartHandler:      &httpserver.CartHTTP{Svc: &cart.CartService{Repo: gormRepo}, Repo: gormRepo, Producer: prod},
		OrderHandler:     &httpserver.OrderHTTP{Svc: &order.OrderService{Repo: gormRepo}, Producer: prod},
		AuthMW:           &authmw.Middleware{Tokens: tokens},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
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

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
