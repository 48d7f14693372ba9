package main

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/admitbridge/admitbridge-backend/internal/db"
	"github.com/admitbridge/admitbridge-backend/internal/handlers"
	"github.com/admitbridge/admitbridge-backend/internal/logger"
	"github.com/admitbridge/admitbridge-backend/internal/middleware"
	"github.com/admitbridge/admitbridge-backend/internal/repos"
	"github.com/admitbridge/admitbridge-backend/internal/search"
	"github.com/admitbridge/admitbridge-backend/internal/search/elastic"
	"github.com/admitbridge/admitbridge-backend/internal/search/memory"
	"github.com/admitbridge/admitbridge-backend/internal/search/semantic"
	"github.com/admitbridge/admitbridge-backend/internal/server"
	"github.com/admitbridge/admitbridge-backend/internal/services"
	"github.com/admitbridge/admitbridge-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis (optional hot layer for fit results)
	var rdb *redis.Client
	if redisAddr := utils.GetEnv("REDIS_ADDR", "", log); redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: utils.GetEnv("REDIS_PASSWORD", "", log),
			DB:       utils.GetEnvAsInt("REDIS_DB", 0, log),
		})
	} else {
		log.Warn("REDIS_ADDR not set, fit cache runs on postgres only")
	}

	// Repos
	log.Info("Setting up Repos from main...")
	profileRepo := repos.NewProfileRepo(thePG, log)
	profileDocumentRepo := repos.NewProfileDocumentRepo(thePG, log)
	universityRepo := repos.NewUniversityRepo(thePG, log)
	collegeListRepo := repos.NewCollegeListRepo(thePG, log)
	fitResultRepo := repos.NewFitResultRepo(thePG, log)
	creditRepo := repos.NewCreditRepo(thePG, log)

	// Search backend
	log.Info("Setting up search backend from main...")
	provider, err := search.ResolveProviderFromEnv()
	if err != nil {
		log.Error("Could not resolve search provider", "error", err)
		os.Exit(1)
	}
	var searchBackend search.Backend
	var indexer services.DocumentIndexer
	switch provider {
	case search.ProviderElastic:
		esCfg, cfgErr := elastic.ResolveConfigFromEnv()
		if cfgErr != nil {
			log.Error("Could not resolve elasticsearch config", "error", cfgErr)
			os.Exit(1)
		}
		esBackend, backendErr := elastic.NewBackend(log, esCfg)
		if backendErr != nil {
			log.Error("Could not init elasticsearch backend", "error", backendErr)
			os.Exit(1)
		}
		searchBackend = esBackend
	case search.ProviderSemantic:
		vecCfg, cfgErr := semantic.ResolveConfigFromEnv()
		if cfgErr != nil {
			log.Error("Could not resolve vector store config", "error", cfgErr)
			os.Exit(1)
		}
		store, storeErr := semantic.NewQdrantStore(log, vecCfg)
		if storeErr != nil {
			log.Error("Could not init qdrant vector store", "error", storeErr)
			os.Exit(1)
		}
		embedder, embErr := semantic.NewHTTPEmbedder(log)
		if embErr != nil {
			log.Error("Could not init embedder", "error", embErr)
			os.Exit(1)
		}
		semanticBackend, backendErr := semantic.NewBackend(log, store, embedder)
		if backendErr != nil {
			log.Error("Could not init semantic backend", "error", backendErr)
			os.Exit(1)
		}
		searchBackend = semanticBackend
		indexer = semanticBackend
	default:
		searchBackend = memory.NewBackend(log, universityRepo)
	}

	// Services
	log.Info("Setting up Services from main...")
	fitCacheService := services.NewFitCacheService(log, rdb, fitResultRepo)
	creditService := services.NewCreditService(thePG, log, creditRepo)
	profileService := services.NewProfileService(thePG, log, profileRepo, profileDocumentRepo, fitCacheService, indexer)
	collegeListService := services.NewCollegeListService(thePG, log, collegeListRepo, universityRepo)
	fitService := services.NewFitService(log, profileRepo, universityRepo, fitCacheService, creditService)

	// Handlers
	log.Info("Setting up handlers from main...")
	profileHandler := handlers.NewProfileHandler(log, profileService)
	collegeListHandler := handlers.NewCollegeListHandler(log, collegeListService)
	fitHandler := handlers.NewFitHandler(log, fitService)
	searchHandler := handlers.NewSearchHandler(log, searchBackend)
	creditHandler := handlers.NewCreditHandler(log, creditService)
	universityHandler := handlers.NewUniversityHandler(log, universityRepo)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware, err := middleware.NewAuthMiddleware(log)
	if err != nil {
		log.Error("Could not init auth middleware", "error", err)
		os.Exit(1)
	}

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:     authMiddleware,
		ProfileHandler:     profileHandler,
		CollegeListHandler: collegeListHandler,
		FitHandler:         fitHandler,
		SearchHandler:      searchHandler,
		CreditHandler:      creditHandler,
		UniversityHandler:  universityHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
