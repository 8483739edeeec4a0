package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/oakmart/storefront/internal/adapter/handler"
	"github.com/oakmart/storefront/internal/adapter/storage"
	"github.com/oakmart/storefront/internal/core/domain"
	"github.com/oakmart/storefront/internal/core/service"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultMySQLDSN     = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	defaultRedisAddr    = "localhost:6379"
	defaultTaxRate      = "0.10"
	defaultShippingCost = "5.99"
	defaultSessionTTL   = 2 * time.Hour
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sql.Open("mysql", getEnv("STOREFRONT_MYSQL_DSN", defaultMySQLDSN))
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Println("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     getEnv("STOREFRONT_REDIS_ADDR", defaultRedisAddr),
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	log.Println("connected to redis")

	rates := domain.Rates{
		TaxRate:      mustDecimal("STOREFRONT_TAX_RATE", defaultTaxRate),
		ShippingCost: mustDecimal("STOREFRONT_SHIPPING_COST", defaultShippingCost),
	}

	sessionTTL := defaultSessionTTL
	if raw := os.Getenv("STOREFRONT_SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid STOREFRONT_SESSION_TTL: %v", err)
		}
		sessionTTL = ttl
	}

	// Initialize adapters
	catalog := storage.NewMySQLCatalog(db)
	cartRepo := storage.NewMySQLCartRepository(db)
	couponRepo := storage.NewMySQLCouponRepository(db)
	orderRepo := storage.NewMySQLOrderRepository(db)
	couponSession := storage.NewRedisCouponSession(rdb, sessionTTL)

	// Initialize services
	cartService := service.NewCartService(cartRepo, catalog, rates)
	couponService := service.NewCouponService(couponRepo, couponSession, cartService)
	orderService := service.NewOrderService(orderRepo, cartService, couponSession, rates)

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(cartService, couponService, orderService)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    getEnv("STOREFRONT_HTTP_ADDR", defaultHTTPAddr),
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	rdb.Close()
	db.Close()
	log.Println("connections closed")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func mustDecimal(key, fallback string) decimal.Decimal {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}
