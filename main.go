package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Ca23187/easypan/config"
	"github.com/Ca23187/easypan/database"
	"github.com/Ca23187/easypan/handlers"
	"github.com/Ca23187/easypan/logger"
	"github.com/Ca23187/easypan/middleware"
	"github.com/Ca23187/easypan/models"
	"github.com/Ca23187/easypan/repositories"
	"github.com/Ca23187/easypan/services"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting easypan service")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := database.InitMySQL(&cfg.Database); err != nil {
		log.Fatalf("init mysql failed: %v", err)
	}

	database.DB.AutoMigrate(
		&models.User{},
		&models.FileRecord{},
		&models.TransferJob{},
	)
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, "file"), 0o755); err != nil {
		log.Fatalf("create file dir failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, "temp"), 0o755); err != nil {
		log.Fatalf("create temp dir failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer)
	handlers.SetServices(serviceContainer)

	serviceContainer.Transfer.Start(context.Background())
	log.Println("transfer workers started")

	r := gin.Default()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Identity())
	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)
	api.POST("/files/upload/chunk", handlers.SubmitChunk)
}
