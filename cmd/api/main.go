package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-minimart-pos/internal/cart"
	"go-minimart-pos/internal/config"
	"go-minimart-pos/internal/handler"
	"go-minimart-pos/internal/lock"
	applog "go-minimart-pos/internal/logger"
	"go-minimart-pos/internal/model"
	"go-minimart-pos/internal/repository"
	"go-minimart-pos/internal/service"
	"go-minimart-pos/internal/ws"
	"go-minimart-pos/pkg/database"
	"go-minimart-pos/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := applog.New(cfg.Log)
	defer log.Sync()
	jwt.Configure(cfg.JWT)

	// 2. Setup Database
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal("failed to migrate", zap.Error(err))
	}

	// 3. Seed default privileges, roles, and admin user
	repos := repository.NewRepositories(db)
	seedPrivilegesRolesAndAdmin(repos, log)

	// 4. Redis is optional; the lock and the cart store fall back to memory
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer rdb.Close()
	}

	var locker lock.Locker = lock.NewLocal(cfg.Lock.Wait)
	if cfg.Lock.Backend == "redis" {
		locker = lock.NewRedis(rdb, cfg.Lock.TTL, cfg.Lock.Wait, cfg.Lock.Backoff, log)
	}
	var carts cart.Store = cart.NewMemoryStore()
	if cfg.Cart.Store == "redis" {
		carts = cart.NewRedisStore(rdb, cfg.Cart.TTL)
	}
	log.Info("backends selected", zap.String("lock", cfg.Lock.Backend), zap.String("cart_store", cfg.Cart.Store))

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	core := service.NewCore(db, repos, locker, wsHub, log, cfg.App.BaseCurrency)

	salesService := service.NewSalesService(core)
	h := &handler.Handlers{
		Auth:       handler.NewAuthHandler(service.NewAuthService(core)),
		Users:      handler.NewUserHandler(service.NewUserService(core)),
		Inventory:  handler.NewInventoryHandler(service.NewInventoryService(core)),
		Sales:      handler.NewSalesHandler(salesService, service.NewCartService(core, carts, salesService)),
		Purchasing: handler.NewPurchasingHandler(service.NewReceivingService(core), service.NewReturnService(core), service.NewPaymentService(core)),
		Funds:      handler.NewFundHandler(service.NewFundService(core)),
		Promotions: handler.NewPromotionHandler(service.NewPromotionService(core)),
		Categories: handler.NewCatalogHandler(service.NewCategoryService(core)),
		Suppliers:  handler.NewCatalogHandler(service.NewSupplierService(core)),
		Customers:  handler.NewCatalogHandler(service.NewCustomerService(core)),
		Attributes: handler.NewCatalogHandler(service.NewAttributeService(core)),
		Reports:    handler.NewReportHandler(service.NewReportService(core)),
		Import:     handler.NewImportHandler(service.NewImportService(core)),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: 16 * 1024 * 1024,
	})
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	handler.RegisterRoutes(app, h, repos.Users)

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "down", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Panic("server stopped", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.App.Port), zap.String("env", cfg.App.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(repos *repository.Repositories, log *zap.Logger) {
	// 1. Privileges first, roles reference them
	if err := repos.Privileges.SeedDefaults(); err != nil {
		log.Warn("failed to seed privileges", zap.Error(err))
	}
	if err := repos.Roles.SeedDefaults(); err != nil {
		log.Warn("failed to seed roles", zap.Error(err))
	}

	// 2. Default admin user
	_, err := repos.Users.FindByEmail(defaultAdminEmail)
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("failed to look up admin user", zap.Error(err))
		return
	}
	adminRole, err := repos.Roles.FindByCode(model.RoleAdmin)
	if err != nil {
		log.Warn("admin role missing", zap.Error(err))
		return
	}

	admin := &model.User{
		Email:      defaultAdminEmail,
		FullName:   "Administrator",
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: adminRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(defaultAdminPassword); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}
	if err := repos.Users.Create(admin); err != nil {
		log.Warn("failed to create admin user", zap.Error(err))
		return
	}
	log.Info("admin user created", zap.String("email", defaultAdminEmail))
}
