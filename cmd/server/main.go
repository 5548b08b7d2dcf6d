package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trip-planner/internal/config"
	"trip-planner/internal/middleware"
	"trip-planner/internal/store"
	"trip-planner/internal/stream"
	"trip-planner/internal/trip"
	"trip-planner/internal/user"
	"trip-planner/internal/worker"
	"trip-planner/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Initialize Redis (optional session store)
	redis.InitRedis()

	// Initialize storage
	fileStore := store.NewFileStore(config.AppConfig.DataFile, config.AppConfig.UsersFile)

	// Fanout: one worker keeps publishes in commit order
	hub := stream.NewHub()
	pool := worker.NewPool(1)
	defer pool.Shutdown()

	// Initialize services
	userService := user.NewService(fileStore)
	tripService := trip.NewService(fileStore, userService, hub, pool)

	// Initialize handlers
	userHandler := user.NewHandler(userService, tripService)
	tripHandler := trip.NewHandler(tripService)
	streamHandler := stream.NewHandler(hub, tripService)

	authMw := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// Auth routes
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", authMw.AuthMiddleWare(), userHandler.Logout)

	// Authenticated API
	api := router.Group("/api", authMw.AuthMiddleWare())
	api.GET("/me", userHandler.Me)
	api.GET("/data", tripHandler.GetItinerary)
	api.GET("/packing", tripHandler.GetPacking)
	api.POST("/days", authMw.AdminMiddleware(), tripHandler.AddDay)
	api.POST("/day/:di/event", tripHandler.AddEvent)
	api.POST("/day/:di/event/:ei", tripHandler.EditEvent)
	api.POST("/day/:di/event/:ei/vote", tripHandler.VoteEvent)
	api.POST("/day/:di/event/:ei/delete", tripHandler.DeleteEvent)
	api.POST("/packing/add", tripHandler.AddPackingItem)
	api.POST("/packing/toggle_heart/:id", tripHandler.ToggleHeart)
	api.POST("/packing/delete/:id", tripHandler.DeletePackingItem)

	// Live stream
	router.GET("/stream", authMw.AuthMiddleWare(), streamHandler.Stream)

	// Admin routes
	admin := router.Group("/admin", authMw.AuthMiddleWare(), authMw.AdminMiddleware())
	admin.POST("/add_user", userHandler.AddUser)
	admin.POST("/delete_user", userHandler.DeleteUser)
	admin.POST("/reset_password", userHandler.ResetPassword)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
