package main

import (
	"fmt"
	"os"
	"time"

	"pennywise/internal/config"
	"pennywise/internal/crypto"
	"pennywise/internal/database"
	"pennywise/internal/handlers"
	"pennywise/internal/logger"
	"pennywise/internal/plaid"
	"pennywise/internal/services"
	"pennywise/internal/validator"

	_ "pennywise/internal/docs" // Import swagger docs
)

// @title           Pennywise API
// @version         1.0
// @description     Pennywise is a personal budgeting backend that syncs bank transactions and reports budget versus actual spending.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()
	if appConfig.SeedDefaults {
		created, err := services.SeedDefaultCategories(db)
		if err != nil {
			return fmt.Errorf("failed to seed default categories: %w", err)
		}
		if created > 0 {
			log.Infof("Seeded %d default category rows", created)
		}
	}

	key := appConfig.TokenEncryptionKey
	if key == "" {
		if appConfig.Env == "production" {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY is required in production")
		}
		if key, err = crypto.GenerateKey(); err != nil {
			return fmt.Errorf("failed to generate encryption key: %w", err)
		}
		log.Warn("TOKEN_ENCRYPTION_KEY not set; using an ephemeral key, linked items will not survive a restart")
	}
	cipher, err := crypto.NewEncryptor(key)
	if err != nil {
		return fmt.Errorf("invalid token encryption key: %w", err)
	}

	plaidClient, err := plaid.NewClient(plaid.Config{
		ClientID:    appConfig.PlaidClientID,
		Secret:      appConfig.PlaidSecret,
		Environment: plaid.Environment(appConfig.PlaidEnv),
		BaseURL:     appConfig.PlaidBaseURL,
		ClientName:  appConfig.PlaidUserAgent,
		Attempts:    appConfig.PlaidRetries,
		RetryDelay:  500 * time.Millisecond,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create plaid client: %w", err)
	}

	validator.Register()

	router := handlers.NewRouter(handlers.Services{
		Groups:       services.NewCategoryGroupService(db),
		Categories:   services.NewCategoryService(db),
		Accounts:     services.NewAccountService(db),
		Transactions: services.NewTransactionService(db),
		Budgets:      services.NewBudgetService(db),
		Sync: services.NewSyncService(db, plaidClient, cipher, services.SyncOptions{
			PageSize: appConfig.PlaidPageSize,
			LockTTL:  appConfig.SyncLockTTL,
		}),
		Summary: services.NewSummaryService(db),
		Audit:   services.NewAuditService(db),
	})

	log.Infof("Starting Pennywise backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
