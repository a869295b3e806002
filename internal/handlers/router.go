package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pennywise/internal/middleware"
	"pennywise/internal/services"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Groups       services.CategoryGroupServicer
	Categories   services.CategoryServicer
	Accounts     services.AccountServicer
	Transactions services.TransactionServicer
	Budgets      services.BudgetServicer
	Sync         services.SyncServicer
	Summary      services.SummaryServicer
	Audit        services.AuditServicer
}

// NewRouter builds the gin engine with middleware, docs, health and the
// /api/v1 routes.
func NewRouter(svc Services) *gin.Engine {
	groupHandler := NewCategoryGroupHandler(svc.Groups, svc.Audit)
	categoryHandler := NewCategoryHandler(svc.Categories, svc.Audit)
	accountHandler := NewAccountHandler(svc.Accounts, svc.Audit)
	transactionHandler := NewTransactionHandler(svc.Transactions, svc.Audit)
	budgetHandler := NewBudgetHandler(svc.Budgets, svc.Audit)
	plaidHandler := NewPlaidHandler(svc.Sync, svc.Audit)
	summaryHandler := NewSummaryHandler(svc.Summary)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	groups := v1.Group("/category-groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.ListGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)

	categories := v1.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)

	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := v1.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	plaid := v1.Group("/plaid")
	plaid.POST("/link-token", plaidHandler.CreateLinkToken)
	plaid.POST("/exchange-public-token", plaidHandler.ExchangePublicToken)
	plaid.GET("/items", plaidHandler.ListItems)
	plaid.DELETE("/items/:id", plaidHandler.DeleteItem)
	plaid.POST("/items/:id/sync-accounts", plaidHandler.SyncAccounts)
	plaid.POST("/items/:id/sync-transactions", plaidHandler.SyncTransactions)

	summary := v1.Group("/summary")
	summary.GET("/budget", summaryHandler.BudgetSummary)
	summary.GET("/dashboard", summaryHandler.DashboardSummary)

	return router
}
