package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/models"
	"pennywise/internal/pagination"
	"pennywise/internal/patch"
	"pennywise/internal/plaid"
)

// CategoryGroupUpdate carries the fields of a partial group update.
type CategoryGroupUpdate struct {
	Name      patch.Field[string]
	SortOrder patch.Field[int]
}

// CategoryGroupServicer defines the contract for category group business logic.
type CategoryGroupServicer interface {
	CreateGroup(name string, sortOrder int) (*models.CategoryGroup, error)
	ListGroups() ([]models.CategoryGroup, error)
	GetGroupByID(groupID string) (*models.CategoryGroup, error)
	UpdateGroup(groupID string, update CategoryGroupUpdate) (*models.CategoryGroup, error)
	DeleteGroup(groupID string) error
}

// CategoryInput holds the fields for creating a category.
type CategoryInput struct {
	GroupID   string
	Name      string
	SortOrder int
	Type      models.CategoryType
	// IsActive defaults to true when nil.
	IsActive *bool
}

// CategoryUpdate carries the fields of a partial category update.
type CategoryUpdate struct {
	GroupID   patch.Field[string]
	Name      patch.Field[string]
	SortOrder patch.Field[int]
	Type      patch.Field[models.CategoryType]
	IsActive  patch.Field[bool]
}

// CategoryServicer defines the contract for category business logic.
type CategoryServicer interface {
	CreateCategory(input CategoryInput) (*models.Category, error)
	ListCategories(groupID *string) ([]models.Category, error)
	GetCategoryByID(categoryID string) (*models.Category, error)
	UpdateCategory(categoryID string, update CategoryUpdate) (*models.Category, error)
	DeleteCategory(categoryID string) error
}

// AccountInput holds the fields for creating a manual account.
type AccountInput struct {
	Name             string
	Type             string
	Subtype          *string
	Mask             *string
	CurrentBalance   decimal.Decimal
	AvailableBalance decimal.NullDecimal
	Currency         string
}

// AccountUpdate carries the fields of a partial account update. Balance and
// classification fields are rejected for linked accounts.
type AccountUpdate struct {
	Name             patch.Field[string]
	IsActive         patch.Field[bool]
	Mask             patch.Field[*string]
	Type             patch.Field[string]
	Subtype          patch.Field[*string]
	CurrentBalance   patch.Field[decimal.Decimal]
	AvailableBalance patch.Field[decimal.NullDecimal]
	Currency         patch.Field[string]
}

// AccountServicer defines the contract for account business logic.
type AccountServicer interface {
	CreateAccount(input AccountInput) (*models.Account, error)
	ListAccounts(activeOnly bool) ([]models.Account, error)
	GetAccountByID(accountID string) (*models.Account, error)
	UpdateAccount(accountID string, update AccountUpdate) (*models.Account, error)
	DeleteAccount(accountID string) error
}

// TransactionInput holds the fields for recording a manual transaction.
type TransactionInput struct {
	AccountID   string
	CategoryID  *string
	Description *string
	Amount      decimal.Decimal
	Date        time.Time
	Datetime    *time.Time
	Pending     bool
}

// TransactionUpdate carries the user-editable fields of a transaction.
type TransactionUpdate struct {
	CategoryID  patch.Field[*string]
	Description patch.Field[*string]
}

// TransactionFilter holds optional filter parameters for listing transactions.
// Dates are inclusive calendar days.
type TransactionFilter struct {
	AccountID     *string
	CategoryID    *string
	StartDate     *time.Time
	EndDate       *time.Time
	Uncategorized bool
	Search        string
}

// TransactionServicer defines the contract for transaction business logic.
type TransactionServicer interface {
	CreateTransaction(input TransactionInput) (*models.Transaction, error)
	ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	UpdateTransaction(transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(transactionID string) error
}

// BudgetInput holds the fields for creating a budget. Month is YYYY-MM.
type BudgetInput struct {
	Month         string
	CategoryID    string
	PlannedAmount decimal.Decimal
}

// BudgetUpdate carries the fields of a partial budget update.
type BudgetUpdate struct {
	Month         patch.Field[string]
	CategoryID    patch.Field[string]
	PlannedAmount patch.Field[decimal.Decimal]
}

// BudgetServicer defines the contract for budget business logic.
type BudgetServicer interface {
	CreateBudget(input BudgetInput) (*models.Budget, error)
	ListBudgets(month *string) ([]models.Budget, error)
	GetBudgetByID(budgetID string) (*models.Budget, error)
	UpdateBudget(budgetID string, update BudgetUpdate) (*models.Budget, error)
	DeleteBudget(budgetID string) error
}

// FeedClient is the subset of the bank data provider API the sync engine uses.
type FeedClient interface {
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*plaid.SyncPage, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	CreateLinkToken(ctx context.Context, clientUserID string) (*plaid.LinkToken, error)
}

// TokenCipher seals access tokens at rest.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// LinkResult is returned after a public token has been exchanged.
type LinkResult struct {
	Item     *models.PlaidItem `json:"item"`
	Accounts []models.Account  `json:"accounts"`
}

// SyncResult reports the outcome of one transaction sync run.
type SyncResult struct {
	ItemID          string `json:"item_id"`
	AccountsSynced  int    `json:"accounts_synced"`
	Added           int    `json:"added"`
	Modified        int    `json:"modified"`
	Removed         int    `json:"removed"`
	Pages           int    `json:"pages"`
	Cursor          string `json:"-"`
	InitialBackfill bool   `json:"initial_backfill"`
}

// SyncServicer defines the contract for the provider sync engine. Item
// references accept either the internal id or the provider's item id.
type SyncServicer interface {
	CreateLinkToken(ctx context.Context) (*plaid.LinkToken, error)
	LinkItem(ctx context.Context, publicToken string) (*LinkResult, error)
	ListItems(ctx context.Context) ([]models.PlaidItem, error)
	DeleteItem(ctx context.Context, itemRef string) (*models.PlaidItem, error)
	SyncAccounts(ctx context.Context, itemRef string) (int, error)
	SyncTransactions(ctx context.Context, itemRef string) (*SyncResult, error)
}

// CategorySummary is one category line of the monthly budget view.
type CategorySummary struct {
	CategoryID   string              `json:"category_id"`
	Name         string              `json:"name"`
	Type         models.CategoryType `json:"type"`
	Planned      decimal.Decimal     `json:"planned"`
	Actual       decimal.Decimal     `json:"actual"`
	Remaining    decimal.Decimal     `json:"remaining"`
	IsOverBudget bool                `json:"is_over_budget"`
}

// GroupSummary rolls up the categories of one group.
type GroupSummary struct {
	GroupID        string            `json:"group_id"`
	Name           string            `json:"name"`
	Categories     []CategorySummary `json:"categories"`
	TotalPlanned   decimal.Decimal   `json:"total_planned"`
	TotalActual    decimal.Decimal   `json:"total_actual"`
	TotalRemaining decimal.Decimal   `json:"total_remaining"`
}

// BudgetSummary is the planned-versus-actual view of one month.
type BudgetSummary struct {
	Month               string          `json:"month"`
	Groups              []GroupSummary  `json:"groups"`
	TotalIncomePlanned  decimal.Decimal `json:"total_income_planned"`
	TotalIncomeActual   decimal.Decimal `json:"total_income_actual"`
	TotalExpensePlanned decimal.Decimal `json:"total_expense_planned"`
	TotalExpenseActual  decimal.Decimal `json:"total_expense_actual"`
	ToBeAssigned        decimal.Decimal `json:"to_be_assigned"`
}

// DashboardGroup is the compact per-group figure shown on the dashboard.
type DashboardGroup struct {
	GroupID string          `json:"group_id"`
	Name    string          `json:"name"`
	Planned decimal.Decimal `json:"planned"`
	Actual  decimal.Decimal `json:"actual"`
}

// AccountBalance is one active account on the dashboard.
type AccountBalance struct {
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Mask           *string         `json:"mask,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Currency       string          `json:"currency"`
}

// DashboardSummary combines monthly totals, balances and recent activity.
type DashboardSummary struct {
	Month              string               `json:"month"`
	Groups             []DashboardGroup     `json:"groups"`
	IncomePlanned      decimal.Decimal      `json:"income_planned"`
	IncomeActual       decimal.Decimal      `json:"income_actual"`
	ExpensePlanned     decimal.Decimal      `json:"expense_planned"`
	ExpenseActual      decimal.Decimal      `json:"expense_actual"`
	ToBeAssigned       decimal.Decimal      `json:"to_be_assigned"`
	Accounts           []AccountBalance     `json:"accounts"`
	TotalBalance       decimal.Decimal      `json:"total_balance"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// SummaryServicer defines the contract for read-only monthly aggregations.
type SummaryServicer interface {
	BudgetSummary(month string) (*BudgetSummary, error)
	DashboardSummary(month string) (*DashboardSummary, error)
}

// AuditServicer records write operations. Failures are logged, never returned.
type AuditServicer interface {
	Log(action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
