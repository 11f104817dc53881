package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"billdesk/internal/config"
	"billdesk/internal/database"
	"billdesk/internal/handlers"
	"billdesk/internal/logger"
	"billdesk/internal/middleware"
)

func main() {
	logger.Init()
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connect failed")
	}

	db := client.Database(config.AppEnv.DBName)
	log.Info().Str("db", db.Name()).Msg("mongodb connected")

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Warn().Err(err).Msg("user index warning")
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Warn().Err(err).Msg("product index warning")
	}
	if err := database.EnsureBillIndexes(db); err != nil {
		log.Warn().Err(err).Msg("bill index warning")
	}
	if err := database.EnsureOccasionIndexes(db); err != nil {
		log.Warn().Err(err).Msg("occasion index warning")
	}
	if err := database.EnsureResetTokenIndexes(db); err != nil {
		log.Warn().Err(err).Msg("reset token index warning")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AppEnv.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
		authGroup.POST("/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
		authGroup.POST("/forgot-password", handlers.ForgotPassword(db, config.AppEnv.ResetTokenTTL))
		authGroup.POST("/reset-password/:token", handlers.ResetPassword(db))
		authGroup.GET("/me", middleware.RequireAuth(config.AppEnv.JWTSecret), handlers.GetMe(db))
	}

	authed := api.Group("")
	authed.Use(middleware.RequireAuth(config.AppEnv.JWTSecret))
	{
		authed.GET("/bills", handlers.GetBills(db))
		authed.GET("/bills/:id", handlers.GetBill(db))
		authed.POST("/bills", handlers.CreateBill(db))
		authed.PUT("/bills/:id", handlers.UpdateBill(db))

		authed.GET("/products", handlers.GetProducts(db))
		authed.GET("/products/:id", handlers.GetProduct(db))

		authed.GET("/occasion", handlers.GetOccasion(db))

		authed.GET("/stats/top-products", handlers.TopProducts(db))
	}

	admin := api.Group("")
	admin.Use(middleware.RequireAuth(config.AppEnv.JWTSecret), middleware.AdminOnly())
	{
		admin.DELETE("/bills/:id", handlers.DeleteBill(db))

		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.POST("/occasion", handlers.SetOccasion(db))
		admin.POST("/occasion/clear", handlers.ClearOccasion(db))
		admin.GET("/occasion/summary", handlers.OccasionSummary(db))

		admin.GET("/users", handlers.ListUsers(db))
	}

	log.Info().Str("port", config.AppEnv.Port).Msg("listening")
	if err := r.Run(":" + config.AppEnv.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
