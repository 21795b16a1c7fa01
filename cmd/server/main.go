package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quillfeed/quillfeed/internal/auth"
	"github.com/quillfeed/quillfeed/internal/database"
	"github.com/quillfeed/quillfeed/internal/engagement"
	"github.com/quillfeed/quillfeed/internal/feed"
	"github.com/quillfeed/quillfeed/internal/handlers"
	"github.com/quillfeed/quillfeed/internal/logger"
	"github.com/quillfeed/quillfeed/internal/metrics"
	"github.com/quillfeed/quillfeed/internal/middleware"
	"github.com/quillfeed/quillfeed/internal/social"
	"github.com/quillfeed/quillfeed/internal/threads"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; system environment wins either way
	_ = godotenv.Load()

	if err := logger.Initialize(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FILE", "server.log")); err != nil {
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("quillfeed server starting")

	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("failed to run migrations", err)
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.FatalWithFields("JWT_SECRET environment variable is required", nil)
	}

	metrics.Initialize()

	statsStop := make(chan struct{})
	database.StartStatsReporter(15*time.Second, statsStop)
	defer close(statsStop)

	authService := auth.NewService(jwtSecret)
	engagementService := engagement.NewService(database.DB)
	socialService := social.NewService(database.DB)
	threadsService := threads.NewService(database.DB)
	feedService := feed.NewService(database.DB, engagementService, socialService)

	h := handlers.NewHandlers(engagementService, socialService, threadsService, feedService)
	authHandlers := handlers.NewAuthHandlers(authService)

	if getEnv("GIN_MODE", "") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnv("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "quillfeed",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandlers.Register)
			authGroup.POST("/login", authHandlers.Login)
			authGroup.GET("/me", authHandlers.AuthMiddleware(), authHandlers.Me)
		}

		feedGroup := api.Group("/feed")
		{
			feedGroup.GET("/global", authHandlers.OptionalAuthMiddleware(), h.GetGlobalFeed)
			feedGroup.GET("/following", authHandlers.AuthMiddleware(), h.GetFollowingFeed)
		}

		posts := api.Group("/posts")
		{
			posts.POST("", authHandlers.AuthMiddleware(), h.CreatePost)
			posts.GET("/:id", authHandlers.OptionalAuthMiddleware(), h.GetPost)
			posts.PATCH("/:id", authHandlers.AuthMiddleware(), h.UpdatePost)
			posts.DELETE("/:id", authHandlers.AuthMiddleware(), h.DeletePost)

			posts.GET("/:id/engagement", authHandlers.OptionalAuthMiddleware(), h.GetEngagement)
			posts.POST("/:id/like", authHandlers.AuthMiddleware(), h.LikePost)
			posts.DELETE("/:id/like", authHandlers.AuthMiddleware(), h.UnlikePost)
			posts.POST("/:id/repost", authHandlers.AuthMiddleware(), h.RepostPost)
			posts.DELETE("/:id/repost", authHandlers.AuthMiddleware(), h.UnrepostPost)

			posts.POST("/:id/comments", authHandlers.AuthMiddleware(), h.CreateComment)
			posts.GET("/:id/comments", h.ListComments)
		}

		comments := api.Group("/comments")
		{
			comments.Use(authHandlers.AuthMiddleware())
			comments.PATCH("/:id", h.UpdateComment)
			comments.DELETE("/:id", h.DeleteComment)
		}

		users := api.Group("/users")
		{
			users.PATCH("/me", authHandlers.AuthMiddleware(), h.UpdateMyProfile)

			users.POST("/:id/follow", authHandlers.AuthMiddleware(), h.FollowUser)
			users.DELETE("/:id/follow", authHandlers.AuthMiddleware(), h.UnfollowUser)
			users.GET("/:id/relationship", authHandlers.OptionalAuthMiddleware(), h.GetRelationship)
			users.GET("/:id/followers", h.GetFollowers)
			users.GET("/:id/following", h.GetFollowing)
		}

		profiles := api.Group("/profiles")
		{
			profiles.GET("/:username", authHandlers.OptionalAuthMiddleware(), h.GetProfile)
			profiles.GET("/:username/posts", authHandlers.OptionalAuthMiddleware(), h.ListUserPosts)
		}

		search := api.Group("/search")
		{
			search.GET("/users", h.SearchUsers)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.ListCategories)
			categories.POST("", authHandlers.AuthMiddleware(), h.CreateCategory)
			categories.GET("/:slug/posts", h.ListCategoryPosts)
		}
	}

	port := getEnv("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("server forced to shutdown", err)
	}

	logger.Log.Info("server exited")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
