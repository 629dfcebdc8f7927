package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"marketplace-service/internal/api"
	"marketplace-service/internal/config"
	"marketplace-service/internal/gateway"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/service"
	"marketplace-service/migrations"
)

func connectDB(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				return db, nil
			}
		}
		log.Printf("retry %d: failed to connect to database: %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to database after retries: %v", err)
}

func main() {
	cfg := config.LoadFromEnv()

	db, err := connectDB(cfg.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	if err := migrations.AutoMigrate(db, 3); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	kafkaWriter := config.NewKafkaWriter(cfg.KafkaTopic)

	var paymentGateway gateway.PaymentGateway
	gatewayName := "stripe"
	if cfg.StripeSecretKey != "" {
		paymentGateway = gateway.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeBaseURL, cfg.GatewayTimeout)
	} else {
		log.Println("STRIPE_SECRET_KEY not set, using in-memory payment gateway")
		paymentGateway = gateway.NewInMemoryGateway()
		gatewayName = "memory"
	}

	productRepo := repository.NewProductRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	pricingService := service.NewPricingService(productRepo, couponRepo)
	checkoutService := service.NewCheckoutService(cartRepo, orderRepo, pricingService, paymentGateway, gatewayName, rdb, kafkaWriter)
	orderService := service.NewOrderService(orderRepo, kafkaWriter)
	cartService := service.NewCartService(cartRepo, productRepo)
	couponService := service.NewCouponService(couponRepo)

	checkoutHandler := api.NewCheckoutHandler(checkoutService)
	orderHandler := api.NewOrderHandler(orderService)
	cartHandler := api.NewCartHandler(cartService)
	couponHandler := api.NewCouponHandler(pricingService, couponService)

	e := echo.New()
	e.HideBanner = true

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(20),
				Burst:     40,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "marketplace-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Coupon preview routes take cart items in the body and need no auth.
	e.POST("/coupons/available", couponHandler.Available)
	e.POST("/coupons/apply", couponHandler.Apply)

	auth := api.AuthMiddleware(cfg.JWTSecret)

	checkout := e.Group("/checkout", auth)
	checkout.POST("/intent", checkoutHandler.CreateIntent)
	checkout.POST("/place-order", checkoutHandler.PlaceOrder)

	cart := e.Group("/cart", auth)
	cart.GET("", cartHandler.GetCart)
	cart.POST("/items", cartHandler.AddItem)
	cart.PUT("/items/:id", cartHandler.UpdateItem)
	cart.DELETE("/items/:id", cartHandler.RemoveItem)

	orders := e.Group("/orders", auth)
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)

	seller := e.Group("/seller", auth, api.RequireSeller)
	seller.GET("/orders", orderHandler.ListSellerOrders)
	seller.GET("/orders/:id", orderHandler.GetSellerOrder)
	seller.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
	seller.GET("/coupons", couponHandler.ListSellerCoupons)
	seller.POST("/coupons", couponHandler.CreateCoupon)
	seller.DELETE("/coupons/:id", couponHandler.DeleteCoupon)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			e.Logger.Info("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
	_ = kafkaWriter.Close()
	_ = rdb.Close()
	_ = db.Close()
}
