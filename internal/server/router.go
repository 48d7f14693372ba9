package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/admitbridge/admitbridge-backend/internal/handlers"
	"github.com/admitbridge/admitbridge-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware     *middleware.AuthMiddleware
	ProfileHandler     *handlers.ProfileHandler
	CollegeListHandler *handlers.CollegeListHandler
	FitHandler         *handlers.FitHandler
	SearchHandler      *handlers.SearchHandler
	CreditHandler      *handlers.CreditHandler
	UniversityHandler  *handlers.UniversityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/api/universities", cfg.UniversityHandler.List)
	router.GET("/api/universities/:slug", cfg.UniversityHandler.Get)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Profile
	protected.GET("/profile", cfg.ProfileHandler.GetProfile)
	protected.PATCH("/profile", cfg.ProfileHandler.UpdateOnboarding)
	protected.GET("/profile/uploads", cfg.ProfileHandler.ListDocuments)
	protected.POST("/profile/uploads", cfg.ProfileHandler.UploadDocument)
	protected.DELETE("/profile/uploads/:filename", cfg.ProfileHandler.RemoveDocument)
	// College list
	protected.GET("/college-list", cfg.CollegeListHandler.List)
	protected.POST("/college-list", cfg.CollegeListHandler.Add)
	protected.DELETE("/college-list/:slug", cfg.CollegeListHandler.Remove)
	// Fit
	protected.POST("/fit", cfg.FitHandler.ComputeFit)
	// Search
	protected.GET("/search", cfg.SearchHandler.Search)
	// Credits
	protected.GET("/credits", cfg.CreditHandler.ListBalances)
	protected.POST("/credits/grant", cfg.CreditHandler.Grant)

	return router
}
