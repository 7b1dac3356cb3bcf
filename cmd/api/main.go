package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garment-tracker/internal/config"
	"garment-tracker/internal/events"
	"garment-tracker/internal/handler"
	"garment-tracker/internal/middleware"
	"garment-tracker/internal/repository"
	"garment-tracker/internal/service"
	"garment-tracker/internal/session"
	"garment-tracker/internal/ws"
	"garment-tracker/pkg/database"
	"garment-tracker/pkg/identity"
	"garment-tracker/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLog, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.Connect(cfg.DB.DSN(), database.Options{
		MaxOpenConns: cfg.DB.MaxConns,
		Debug:        cfg.App.Env == "development",
	})
	if err != nil {
		appLog.Error("database unavailable", logger.Error(err))
		os.Exit(1)
	}
	if cfg.DB.Migrate {
		if err := repository.AutoMigrate(db); err != nil {
			appLog.Error("migration failed", logger.Error(err))
			os.Exit(1)
		}
	}

	// 3. Event fan-out: dashboards always, brokers when configured
	wsHub := ws.NewHub(appLog.With(logger.String("component", "ws")))
	go wsHub.Run(ctx)

	publishers := events.Multi{wsHub}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.EventTopic, appLog)
		if err != nil {
			appLog.Error("kafka unavailable", logger.Error(err))
			os.Exit(1)
		}
		defer kafka.Close()
		publishers = append(publishers, kafka)
	}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, appLog)
		if err != nil {
			appLog.Error("rabbitmq unavailable", logger.Error(err))
			os.Exit(1)
		}
		defer rabbit.Close()
		publishers = append(publishers, rabbit)
	}

	// 4. Dependency Injection (Wiring Layers)
	accountRepo := repository.NewAccountRepo(db)
	productRepo := repository.NewProductRepo(db)
	orderRepo := repository.NewOrderRepo(db)

	gate := session.NewGate(accountRepo, cfg.Session.MaxAge, appLog.With(logger.String("component", "session")))

	accountService := service.NewAccountService(accountRepo, gate, publishers, appLog)
	productService := service.NewProductService(productRepo, publishers, appLog)
	orderService := service.NewOrderService(orderRepo, productRepo, publishers, appLog)
	verifier := identity.NewVerifier(cfg.Identity.Secret, cfg.Identity.Issuer, cfg.Identity.Audience)
	authService := service.NewAuthService(verifier, gate, accountService, appLog)

	handlers := handler.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.MaxAge,
		}),
		User:      handler.NewUserHandler(accountService),
		Product:   handler.NewProductHandler(productService),
		Order:     handler.NewOrderHandler(orderService),
		Dashboard: websocket.New(wsHub.Serve),
	}

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: handler.ErrorHandler(appLog),
	})

	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestContext())

	// 6. Routes
	handler.Routes(app, handlers, gate, cfg.Session.CookieName)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": gate.Sessions(), "dashboards": wsHub.Clients()})
	})

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(cfg.Server.Address()); err != nil {
			appLog.Error("server stopped", logger.Error(err))
			stop()
		}
	}()
	appLog.Info("server started", logger.String("addr", cfg.Server.Address()))

	<-ctx.Done()

	appLog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLog.Error("server forced to shutdown", logger.Error(err))
	}
	appLog.Info("server exited")
}
