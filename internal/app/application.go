package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"retail-pos-backend/internal/background"
	"retail-pos-backend/internal/checkout"
	"retail-pos-backend/internal/config"
	"retail-pos-backend/internal/handlers"
	"retail-pos-backend/internal/invoice"
	"retail-pos-backend/internal/middleware"
	"retail-pos-backend/internal/models"
	"retail-pos-backend/internal/payments"
	"retail-pos-backend/internal/repository"
	"retail-pos-backend/internal/service"
	"retail-pos-backend/pkg/cache"
	"retail-pos-backend/pkg/logger"
)

type Application struct {
	cfg *config.Config

	db    *gorm.DB
	cache *cache.Cache

	repositories repositoryContainer
	services     serviceContainer
	handlers     handlerContainer

	sessions    *checkout.Manager
	scheduler   *background.Scheduler
	rateLimiter *middleware.RateLimitManager

	jobsCancel context.CancelFunc

	router *gin.Engine
	server *http.Server
}

type repositoryContainer struct {
	User      repository.UserRepository
	Product   repository.ProductRepository
	Inventory repository.InventoryRepository
	Customer  repository.CustomerRepository
	Promotion repository.PromotionRepository
	Order     repository.OrderRepository
	Payment   repository.PaymentRepository
	Loyalty   repository.LoyaltyRepository
}

type serviceContainer struct {
	Auth      *service.AuthService
	Catalog   *service.CatalogService
	Promotion *service.PromotionService
	Checkout  *service.CheckoutService
	Order     *service.OrderService
}

type handlerContainer struct {
	Auth     *handlers.AuthHandler
	Catalog  *handlers.CatalogHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
}

func New(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	app := &Application{cfg: cfg}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.runMigrations(); err != nil {
		return nil, err
	}

	if err := app.createIndexes(); err != nil {
		return nil, err
	}

	app.initCache()
	app.initRepositories()

	if err := app.initServices(); err != nil {
		return nil, err
	}

	app.initHandlers()
	app.initRouter()
	app.initBackground()

	app.server = &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        app.router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return app, nil
}

func (a *Application) Run() error {
	logger.Info("Server starting", map[string]interface{}{
		"port":        a.cfg.Port,
		"environment": a.cfg.Environment,
	})

	return a.server.ListenAndServe()
}

func (a *Application) Shutdown(ctx context.Context) error {
	if a.jobsCancel != nil {
		a.jobsCancel()
	}

	if a.scheduler != nil {
		if err := a.scheduler.Shutdown(ctx); err != nil {
			logger.Error(err, "Background scheduler shutdown failed", nil)
		}
	}

	if a.rateLimiter != nil {
		a.rateLimiter.Shutdown()
	}

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return err
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.Error(err, "Failed to close cache connection", nil)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	return nil
}

func (a *Application) Router() *gin.Engine {
	return a.router
}

func (a *Application) initDatabase() error {
	logger.Info("Connecting to database", nil)

	db, err := gorm.Open(postgres.Open(a.cfg.DatabaseURL), &gorm.Config{
		Logger: logger.NewGormLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	a.db = db
	return nil
}

func (a *Application) runMigrations() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Running database migrations", nil)

	if err := a.db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.InventoryRecord{},
		&models.Customer{},
		&models.Promotion{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PointsConfig{},
		&models.PointsEntry{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Database migration completed", nil)
	return nil
}

func (a *Application) createIndexes() error {
	if a.db == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	logger.Info("Creating database indexes", nil)

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_barcode ON products(barcode) WHERE barcode <> ''",
		"CREATE INDEX IF NOT EXISTS idx_promotions_active ON promotions(is_active) WHERE is_active = true",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_points_entries_customer_id ON points_entries(customer_id)",
	}

	for _, stmt := range statements {
		if err := a.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (a *Application) initCache() {
	if a.cfg.EnableCache && a.cfg.EnableRedis {
		c, err := cache.NewCache(a.cfg.RedisURL, true)
		if err != nil {
			// The register must keep selling without Redis; fall back to the
			// disabled cache and hit the database directly.
			logger.Error(err, "Cache unavailable, continuing without it", nil)
			c, _ = cache.NewCache("", false)
		}
		a.cache = c
		return
	}

	a.cache, _ = cache.NewCache("", false)
}

func (a *Application) initRepositories() {
	a.repositories = repositoryContainer{
		User:      repository.NewUserRepository(a.db),
		Product:   repository.NewProductRepository(a.db),
		Inventory: repository.NewInventoryRepository(a.db),
		Customer:  repository.NewCustomerRepository(a.db),
		Promotion: repository.NewPromotionRepository(a.db),
		Order:     repository.NewOrderRepository(a.db),
		Payment:   repository.NewPaymentRepository(a.db),
		Loyalty:   repository.NewLoyaltyRepository(a.db),
	}
}

func (a *Application) initServices() error {
	renderer, err := invoice.NewRenderer(a.cfg.StoreName, a.cfg.StoreAddress, a.cfg.StoreCurrency)
	if err != nil {
		return fmt.Errorf("failed to initialize invoice renderer: %w", err)
	}

	a.services = serviceContainer{
		Auth:      service.NewAuthService(a.repositories.User, a.cfg.JWTSecret),
		Catalog:   service.NewCatalogService(a.repositories.Product, a.repositories.Inventory, a.repositories.Customer),
		Promotion: service.NewPromotionService(a.repositories.Promotion, a.cache),
		Checkout: service.NewCheckoutService(
			a.repositories.Order,
			a.repositories.Payment,
			a.repositories.Inventory,
			a.repositories.Loyalty,
			a.repositories.Customer,
			renderer,
			a.cfg.EnableLoyalty,
		),
		Order: service.NewOrderService(a.repositories.Order, renderer, a.cache),
	}

	a.sessions = checkout.NewManager(checkout.ConfirmerConfig{
		SettleDelay:   a.cfg.ConfirmSettleDelay,
		PollInterval:  a.cfg.ConfirmPollInterval,
		MaxAttempts:   a.cfg.ConfirmMaxAttempts,
		AmountEpsilon: a.cfg.ConfirmAmountEpsilon,
		CloseDelay:    a.cfg.ConfirmCloseDelay,
	}, payments.NewStoreSource(a.repositories.Order))

	return nil
}

func (a *Application) initHandlers() {
	a.handlers = handlerContainer{
		Auth:    handlers.NewAuthHandler(a.services.Auth),
		Catalog: handlers.NewCatalogHandler(a.services.Catalog, a.services.Promotion),
		Checkout: handlers.NewCheckoutHandler(
			a.sessions,
			a.services.Catalog,
			a.services.Promotion,
			a.services.Checkout,
		),
		Order: handlers.NewOrderHandler(a.services.Order),
	}
}

func (a *Application) initRouter() {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a.rateLimiter = middleware.NewRateLimitManager(context.Background())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(logger.GinLogger())
	router.Use(middleware.RateLimitMiddleware(a.cfg, a.rateLimiter))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	if a.cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		public := v1.Group("")
		{
			public.POST("/register", a.handlers.Auth.Register)
			public.POST("/login", a.handlers.Auth.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		{
			protected.GET("/me", a.handlers.Auth.Me)

			protected.GET("/products", a.handlers.Catalog.GetProducts)
			protected.GET("/products/:sku", a.handlers.Catalog.GetProductBySKU)
			protected.GET("/inventory", a.handlers.Catalog.GetInventory)
			protected.GET("/promotions", a.handlers.Catalog.GetPromotions)
			protected.GET("/customers", a.handlers.Catalog.SearchCustomers)
			protected.GET("/customers/:id", a.handlers.Catalog.GetCustomer)

			cart := protected.Group("/checkout")
			{
				cart.GET("/cart", a.handlers.Checkout.GetCart)
				cart.POST("/cart/lines", a.handlers.Checkout.AddLine)
				cart.PUT("/cart/lines/:sku", a.handlers.Checkout.UpdateLine)
				cart.DELETE("/cart/lines/:sku", a.handlers.Checkout.RemoveLine)
				cart.DELETE("/cart", a.handlers.Checkout.ClearCart)

				cart.POST("/promotions", a.handlers.Checkout.ApplyPromotion)
				cart.DELETE("/promotions/:id", a.handlers.Checkout.RemovePromotion)

				cart.GET("/methods", a.handlers.Checkout.GetMethods)
				cart.POST("/confirmation", a.handlers.Checkout.StartConfirmation)
				cart.GET("/confirmation", a.handlers.Checkout.GetConfirmation)
				cart.DELETE("/confirmation", a.handlers.Checkout.CancelConfirmation)

				cart.POST("/commit", a.handlers.Checkout.Commit)
			}

			protected.GET("/orders", a.handlers.Order.List)
			protected.GET("/orders/:id", a.handlers.Order.GetByID)
			protected.GET("/orders/:id/invoice", a.handlers.Order.Invoice)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(a.cfg.JWTSecret))
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/promotions", a.handlers.Catalog.GetAllPromotions)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Route not found",
			"path":  c.Request.URL.Path,
		})
	})

	a.router = router
}

// initBackground starts the job scheduler and the recurring maintenance
// jobs: sweeping finished payment attempts and refreshing the promotion
// cache so new codes reach the register without a restart.
func (a *Application) initBackground() {
	a.scheduler = background.NewScheduler(background.SchedulerConfig{
		WorkerCount: 2,
		QueueSize:   32,
	})

	ctx, cancel := context.WithCancel(context.Background())
	a.jobsCancel = cancel
	a.scheduler.Start(ctx)

	go a.runRecurring(ctx, "attempt-sweep", a.cfg.AttemptSweepInterval, func(context.Context) error {
		swept := a.sessions.Sweep()
		if swept > 0 {
			logger.Info("Swept stale payment attempts", map[string]interface{}{"count": swept})
		}
		return nil
	})

	go a.runRecurring(ctx, "promotion-cache-refresh", a.cfg.PromotionCacheRefresh, func(ctx context.Context) error {
		return a.services.Promotion.RefreshCatalog()
	})
}

func (a *Application) runRecurring(ctx context.Context, name string, interval time.Duration, run func(ctx context.Context) error) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := a.scheduler.ScheduleUnique(background.Job{
				Name:    name,
				Run:     run,
				Timeout: time.Minute,
			})
			if err != nil && !errors.Is(err, background.ErrJobAlreadyScheduled) {
				logger.Warn("Failed to schedule background job", map[string]interface{}{
					"job":   name,
					"error": err.Error(),
				})
			}
		}
	}
}
