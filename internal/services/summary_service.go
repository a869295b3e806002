package services

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// recentTransactionLimit caps the dashboard's recent activity list.
const recentTransactionLimit = 10

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ResolveMonth parses a YYYY-MM token into the first day of that month and
// the first day of the next one. The range is half-open.
func ResolveMonth(token string) (time.Time, time.Time, error) {
	if !monthPattern.MatchString(token) {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidMonth
	}
	start, err := time.ParseInLocation("2006-01", token, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.ErrInvalidMonth
	}
	return start, start.AddDate(0, 1, 0), nil
}

// summaryService computes monthly aggregations on demand. Nothing is cached.
type summaryService struct {
	db *gorm.DB
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(db *gorm.DB) SummaryServicer {
	return &summaryService{db: db}
}

// BudgetSummary returns planned versus actual figures for every category in
// the month, grouped and ordered for display.
func (s *summaryService) BudgetSummary(month string) (*BudgetSummary, error) {
	start, end, err := ResolveMonth(month)
	if err != nil {
		return nil, err
	}
	return s.budgetSummary(month, start, end)
}

// DashboardSummary returns the month's group totals alongside account
// balances and the latest transactions.
func (s *summaryService) DashboardSummary(month string) (*DashboardSummary, error) {
	start, end, err := ResolveMonth(month)
	if err != nil {
		return nil, err
	}

	budget, err := s.budgetSummary(month, start, end)
	if err != nil {
		return nil, err
	}

	dashboard := &DashboardSummary{
		Month:          month,
		Groups:         make([]DashboardGroup, 0, len(budget.Groups)),
		IncomePlanned:  budget.TotalIncomePlanned,
		IncomeActual:   budget.TotalIncomeActual,
		ExpensePlanned: budget.TotalExpensePlanned,
		ExpenseActual:  budget.TotalExpenseActual,
		ToBeAssigned:   budget.ToBeAssigned,
		TotalBalance:   decimal.Zero,
	}
	for _, g := range budget.Groups {
		dashboard.Groups = append(dashboard.Groups, DashboardGroup{
			GroupID: g.GroupID,
			Name:    g.Name,
			Planned: g.TotalPlanned,
			Actual:  g.TotalActual,
		})
	}

	var accounts []models.Account
	if err := s.db.Where("is_active = ?", true).Order("name ASC, id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	dashboard.Accounts = make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		dashboard.Accounts = append(dashboard.Accounts, AccountBalance{
			AccountID:      a.ID,
			Name:           a.Name,
			Type:           a.Type,
			Mask:           a.Mask,
			CurrentBalance: a.CurrentBalance,
			Currency:       a.Currency,
		})
		dashboard.TotalBalance = dashboard.TotalBalance.Add(a.CurrentBalance)
	}
	dashboard.TotalBalance = dashboard.TotalBalance.Round(2)

	var recent []models.Transaction
	if err := s.db.Where("date >= ? AND date < ?", start, end).
		Order("date DESC, id DESC").
		Limit(recentTransactionLimit).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if recent == nil {
		recent = []models.Transaction{}
	}
	dashboard.RecentTransactions = recent

	return dashboard, nil
}

func (s *summaryService) budgetSummary(month string, start, end time.Time) (*BudgetSummary, error) {
	var groups []models.CategoryGroup
	if err := s.db.Order("sort_order ASC, name ASC, id ASC").Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := s.db.Order("sort_order ASC, name ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	byGroup := make(map[string][]models.Category, len(groups))
	for _, cat := range categories {
		byGroup[cat.GroupID] = append(byGroup[cat.GroupID], cat)
	}

	planned, err := s.plannedByCategory(start, end)
	if err != nil {
		return nil, err
	}
	actuals, err := s.actualByCategory(start, end)
	if err != nil {
		return nil, err
	}

	summary := &BudgetSummary{
		Month:               month,
		Groups:              make([]GroupSummary, 0, len(groups)),
		TotalIncomePlanned:  decimal.Zero,
		TotalIncomeActual:   decimal.Zero,
		TotalExpensePlanned: decimal.Zero,
		TotalExpenseActual:  decimal.Zero,
	}

	for _, group := range groups {
		gs := GroupSummary{
			GroupID:        group.ID,
			Name:           group.Name,
			Categories:     make([]CategorySummary, 0, len(byGroup[group.ID])),
			TotalPlanned:   decimal.Zero,
			TotalActual:    decimal.Zero,
			TotalRemaining: decimal.Zero,
		}

		for _, cat := range byGroup[group.ID] {
			line := summarizeCategory(cat, planned[cat.ID], actuals[cat.ID])

			switch cat.Type {
			case models.CategoryTypeIncome:
				summary.TotalIncomePlanned = summary.TotalIncomePlanned.Add(line.Planned)
				summary.TotalIncomeActual = summary.TotalIncomeActual.Add(line.Actual)
			case models.CategoryTypeExpense:
				summary.TotalExpensePlanned = summary.TotalExpensePlanned.Add(line.Planned)
				summary.TotalExpenseActual = summary.TotalExpenseActual.Add(line.Actual)
			}

			gs.TotalPlanned = gs.TotalPlanned.Add(line.Planned)
			gs.TotalActual = gs.TotalActual.Add(line.Actual)
			gs.TotalRemaining = gs.TotalRemaining.Add(line.Remaining)
			gs.Categories = append(gs.Categories, line)
		}

		summary.Groups = append(summary.Groups, gs)
	}

	summary.ToBeAssigned = summary.TotalIncomePlanned.Sub(summary.TotalExpensePlanned)
	return summary, nil
}

// summarizeCategory applies the sign convention for the category type.
// Income arrives as negative ledger amounts and is reported as positive;
// it is never over budget.
func summarizeCategory(cat models.Category, planned, rawActual decimal.Decimal) CategorySummary {
	actual := rawActual
	if cat.Type == models.CategoryTypeIncome {
		actual = rawActual.Neg()
	}
	remaining := planned.Sub(actual)

	return CategorySummary{
		CategoryID:   cat.ID,
		Name:         cat.Name,
		Type:         cat.Type,
		Planned:      planned,
		Actual:       actual,
		Remaining:    remaining,
		IsOverBudget: cat.Type != models.CategoryTypeIncome && remaining.IsNegative(),
	}
}

type categoryTotal struct {
	CategoryID string
	Total      decimal.Decimal
}

func (s *summaryService) plannedByCategory(start, end time.Time) (map[string]decimal.Decimal, error) {
	var budgets []models.Budget
	if err := s.db.Where("budget_month >= ? AND budget_month < ?", start, end).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	planned := make(map[string]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		planned[b.CategoryID] = b.PlannedAmount.Round(2)
	}
	return planned, nil
}

// actualByCategory sums categorized transactions dated within [start, end).
// Uncategorized transactions are ignored.
func (s *summaryService) actualByCategory(start, end time.Time) (map[string]decimal.Decimal, error) {
	var rows []categoryTotal
	if err := s.db.Model(&models.Transaction{}).
		Select("category_id, COALESCE(SUM(amount), 0) AS total").
		Where("category_id IS NOT NULL AND date >= ? AND date < ?", start, end).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	actuals := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		actuals[r.CategoryID] = r.Total.Round(2)
	}
	return actuals, nil
}
