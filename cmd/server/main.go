package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/example/dentamart/internal/config"
	"github.com/example/dentamart/internal/database"
	"github.com/example/dentamart/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName: "Dentamart Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	if err := routes.Register(app, db, cfg); err != nil {
		log.Fatalf("route registration failed: %v", err)
	}

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
