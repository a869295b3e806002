package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a manual transaction. Manual rows have no
// provider id and are never touched by sync.
func (s *transactionService) CreateTransaction(input TransactionInput) (*models.Transaction, error) {
	if input.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	if err := s.ensureAccountExists(input.AccountID); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.ensureCategoryExists(*input.CategoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		AccountID:   input.AccountID,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Amount:      input.Amount.Round(2),
		Date:        models.NormalizeDate(input.Date),
		Pending:     input.Pending,
	}
	if input.Datetime != nil {
		dt := input.Datetime.UTC()
		transaction.Datetime = &dt
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, classifyWriteError(err, nil, apperrors.ErrAccountNotFound)
	}

	return transaction, nil
}

// ListTransactions returns a page of transactions, newest first.
func (s *transactionService) ListTransactions(filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	if filter.Uncategorized && filter.CategoryID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "uncategorized cannot be combined with category_id")
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end_date must not be before start_date")
	}

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}), filter).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page, total)
	return &result, nil
}

// applyTransactionFilters adds WHERE clauses for each non-empty filter field.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Uncategorized {
		q = q.Where("category_id IS NULL")
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", models.NormalizeDate(*f.StartDate))
	}
	if f.EndDate != nil {
		q = q.Where("date < ?", models.NormalizeDate(*f.EndDate).AddDate(0, 0, 1))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where("LOWER(description) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(search))+"%")
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetTransactionByID retrieves a transaction by ID
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ?", transactionID).First(&transaction).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrTransactionNotFound)
	}
	return &transaction, nil
}

// UpdateTransaction changes the category or description. A null category
// makes the transaction uncategorized.
func (s *transactionService) UpdateTransaction(transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if update.CategoryID.Set {
		categoryID := update.CategoryID.Value
		if update.CategoryID.Null || categoryID == nil {
			updates["category_id"] = nil
		} else {
			if err := s.ensureCategoryExists(*categoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *categoryID
		}
	}
	if update.Description.Set {
		if update.Description.Null || update.Description.Value == nil {
			updates["description"] = nil
		} else {
			updates["description"] = *update.Description.Value
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
			return nil, classifyWriteError(err, nil, apperrors.ErrCategoryNotFound)
		}
	}

	return s.GetTransactionByID(transactionID)
}

// DeleteTransaction deletes a transaction. A synced transaction comes back on
// the next sync only if the provider reports it as modified.
func (s *transactionService) DeleteTransaction(transactionID string) error {
	transaction, err := s.GetTransactionByID(transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&models.Transaction{}, "id = ?", transaction.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *transactionService) ensureAccountExists(accountID string) error {
	if accountID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account_id is required")
	}
	var count int64
	if err := s.db.Model(&models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func (s *transactionService) ensureCategoryExists(categoryID string) error {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
