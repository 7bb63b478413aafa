package main

import (
	"fmt"
	"time"

	"tugas-api/configs"
	v1 "tugas-api/internal/api/v1"
	"tugas-api/internal/api/v1/handlers"
	"tugas-api/internal/config"
	"tugas-api/internal/middleware"
	"tugas-api/internal/repository"
	"tugas-api/pkg/database"
	"tugas-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
)

func main() {
	// Inisialisasi logger
	logger.InitLoggers()
	defer logger.SyncLoggers()
	logger.SystemLogger.Info("Starting application", zap.String("time", time.Now().Format(time.RFC3339)))

	// Load config
	cfg := configs.LoadConfig()
	config.SetSecretKey(cfg.JWTSecret)

	// Inisialisasi database
	config.DB = database.ConnectDB(cfg)
	defer config.DB.Close()

	logger.SystemLogger.Info("Database Connected")

	// ----- Inisialisasi repository ----- //
	// Buat tabel jika belum ada:
	repository.CreateTableIfNotExists(config.DB)
	// Jika ingin membuat admin user:
	// repository.CreateAdminUser(config.DB)

	// Inisialisasi Redis
	config.RedisClient = database.ConnectRedis(cfg)
	defer config.RedisClient.Close()

	app := fiber.New()

	// Middleware
	app.Use(middleware.ErrorHandler())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Google OAuth dibuat di sini dan dioper sebagai dependency,
	// bukan didaftarkan sebagai singleton level package
	googleOAuth := handlers.NewGoogleOAuth(cfg)

	// Daftarkan route API v1
	v1.RegisterRoutes(app, googleOAuth)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	logger.SystemLogger.Info("Application ready", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.ErrorLogger.Error("Application failed to start", zap.Error(err))
	}
}
