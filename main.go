package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"readmission-service/booster"
	"readmission-service/config"
	"readmission-service/controllers"
	"readmission-service/risk"
	"readmission-service/routes"
	"readmission-service/security"
)

func main() {
	config.ConnectDB()

	mappings, err := risk.LoadMappings(config.MappingsPath())
	if err != nil {
		log.Fatalf("Failed to load mapping tables: %v", err)
	}
	log.Printf("Loaded mapping tables (version %d)", mappings.Version)

	// The model artifact is loaded once and shared read-only across all
	// requests. A schema mismatch is fatal here: scoring against the wrong
	// schema would corrupt predictions silently.
	model, err := booster.Load(config.ModelPath())
	if err != nil {
		log.Fatalf("Failed to load model from %s: %v", config.ModelPath(), err)
	}
	log.Printf("Loaded model %s (%d trees)", model.Version(), model.NumTrees())

	riskService := risk.NewService(mappings, model)
	riskController := controllers.NewRiskController(riskService)

	r := gin.Default()
	r.Use(security.CORSMiddleware())

	api := r.Group("/api/v1")
	routes.RiskRoutes(api, riskController)

	port := config.Port()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Readmission service starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down readmission service...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Readmission service forced to shutdown:", err)
	}

	log.Println("Readmission service exited")
}
