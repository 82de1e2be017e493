package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"contest-hub-system/handlers"
	"contest-hub-system/models"
	"contest-hub-system/services"
	"contest-hub-system/utils"
	"contest-hub-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	if os.Getenv("ACCESS_TOKEN_SECRET") == "" {
		log.Fatal("ACCESS_TOKEN_SECRET environment variable not set")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Contest{},
		&models.Participation{},
		&models.Submission{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitStorage(); err != nil {
		log.Fatal("failed to initialize object storage:", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	userService := services.NewUserService(db)
	contestService := services.NewContestService(db)
	participationService := services.NewParticipationService(db)
	winnerService := services.NewWinnerService(db)

	handlers.SetupUserRoutes(app, db, userService)
	handlers.SetupContestRoutes(app, db, contestService, winnerService)
	handlers.SetupParticipationRoutes(app, db, participationService)

	reconcileInterval := 5 * time.Minute
	if v := os.Getenv("RECONCILE_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			reconcileInterval = time.Duration(n) * time.Second
		}
	}
	reconciler := workers.NewCounterReconciler(db)
	reconciler.Start(reconcileInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5100"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on http://localhost:%s", port)
	log.Printf("Counter reconciliation running every %s", reconcileInterval)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
