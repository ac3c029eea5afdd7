package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-server/internal/api"
	"github.com/skillbridge/skillbridge-server/internal/config"
	"github.com/skillbridge/skillbridge-server/internal/notify"
	"github.com/skillbridge/skillbridge-server/internal/repository"
	"github.com/skillbridge/skillbridge-server/internal/service"
	"github.com/skillbridge/skillbridge-server/internal/utils"
)

func main() {
	logger := utils.NewLogger()

	// Load configuration
	cfg := config.LoadConfig()

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to set up database: %v", err)
	}
	defer db.Close()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	notifier := notify.NewLogNotifier(logger)
	svc := service.NewDefaultService(repo, cfg.Auth.JWTSecret, cfg.Credits, notifier)

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()
	handler.SetupRoutes(router, []byte(cfg.Auth.JWTSecret))

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
