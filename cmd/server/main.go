package main

import (
	"log"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/router"
	"github.com/ahshakib/Collaborative-Storytelling-App/pkg/config"
	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, cfg.MongoDBName, cfg.JWTSecret)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
