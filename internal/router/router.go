package router

import (
	"log"

	"github.com/ahshakib/Collaborative-Storytelling-App/internal/handlers"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/middleware"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/models"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/realtime"
	"github.com/ahshakib/Collaborative-Storytelling-App/internal/repositories"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, mongoDBName, jwtSecret string) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Vote{},
		&models.Invite{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	mongoDB := mgClient.Database(mongoDBName)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	storyRepo := repositories.NewMongoStoryRepository(mongoDB)
	contributionRepo := repositories.NewMongoContributionRepository(mongoDB)
	voteRepo := repositories.NewPostgresVoteRepository(pgdb)
	inviteRepo := repositories.NewPostgresInviteRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)

	hub := realtime.NewHub()

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/auth")
	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Public read routes (anonymous allowed, private-story checks apply) ---
	public := e.Group("/api")
	public.Use(middleware.OptionalJWTAuthMiddleware(jwtSecret))

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))
	log.Println("JWT authentication middleware applied to /api group.")

	authHandler.RegisterMeRoutes(api)

	// Story routes
	storyHandler := handlers.NewStoryHandler(storyRepo, contributionRepo, userRepo, hub)
	storyHandler.RegisterStoryRoutes(api)
	storyHandler.RegisterPublicStoryRoutes(public)
	log.Println("Story routes configured.")

	// Contribution routes
	contributionHandler := handlers.NewContributionHandler(contributionRepo, storyRepo, userRepo, notificationRepo, hub)
	contributionHandler.RegisterContributionRoutes(api)
	contributionHandler.RegisterPublicContributionRoutes(public)
	log.Println("Contribution routes configured.")

	// Vote routes
	voteHandler := handlers.NewVoteHandler(voteRepo, contributionRepo, notificationRepo, hub)
	voteHandler.RegisterVoteRoutes(api)
	voteHandler.RegisterPublicVoteRoutes(public)
	log.Println("Vote routes configured.")

	// Collaborator routes
	collaboratorHandler := handlers.NewCollaboratorHandler(storyRepo, userRepo, inviteRepo)
	collaboratorHandler.RegisterCollaboratorRoutes(api)
	log.Println("Collaborator routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
