package services

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
)

// defaultCurrency applies when neither the caller nor the provider names one.
const defaultCurrency = "USD"

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a manual account that is not tied to any provider item.
func (s *accountService) CreateAccount(input AccountInput) (*models.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	accountType := strings.TrimSpace(input.Type)
	if accountType == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type is required")
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	account := &models.Account{
		Name:             name,
		Type:             accountType,
		Subtype:          input.Subtype,
		Mask:             input.Mask,
		CurrentBalance:   input.CurrentBalance.Round(2),
		AvailableBalance: roundNull(input.AvailableBalance),
		Currency:         currency,
		IsActive:         true,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// ListAccounts returns accounts ordered by name.
func (s *accountService) ListAccounts(activeOnly bool) ([]models.Account, error) {
	q := s.db.Model(&models.Account{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var accounts []models.Account
	if err := q.Order("name ASC, id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		return nil, notFoundOr(err, apperrors.ErrAccountNotFound)
	}
	return &account, nil
}

// UpdateAccount applies the fields present in update. Linked accounts only
// accept name and is_active; everything else is owned by the provider.
func (s *accountService) UpdateAccount(accountID string, update AccountUpdate) (*models.Account, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	if account.IsLinked() && (update.Mask.Set || update.Type.Set || update.Subtype.Set ||
		update.CurrentBalance.Set || update.AvailableBalance.Set || update.Currency.Set) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			"only name and is_active can be changed on a linked account")
	}
	if update.Name.Null || update.IsActive.Null || update.Type.Null || update.CurrentBalance.Null || update.Currency.Null {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, is_active, type, current_balance and currency cannot be null")
	}

	updates := make(map[string]any)
	if name, ok := update.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
		}
		updates["name"] = name
	}
	if isActive, ok := update.IsActive.Get(); ok {
		updates["is_active"] = isActive
	}
	if update.Mask.Set {
		updates["mask"] = update.Mask.Value
	}
	if accountType, ok := update.Type.Get(); ok {
		accountType = strings.TrimSpace(accountType)
		if accountType == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type cannot be empty")
		}
		updates["type"] = accountType
	}
	if update.Subtype.Set {
		updates["subtype"] = update.Subtype.Value
	}
	if balance, ok := update.CurrentBalance.Get(); ok {
		updates["current_balance"] = balance.Round(2)
	}
	if update.AvailableBalance.Set {
		updates["available_balance"] = roundNull(update.AvailableBalance.Value)
	}
	if currency, ok := update.Currency.Get(); ok {
		updates["currency"] = strings.ToUpper(currency)
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAccountByID(accountID)
}

// DeleteAccount deletes an account that has no transactions. Transactions
// must be removed or the account deactivated instead.
func (s *accountService) DeleteAccount(accountID string) error {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("account_id = ?", account.ID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrAccountHasTransactions
	}

	if err := s.db.Delete(&models.Account{}, "id = ?", account.ID).Error; err != nil {
		return classifyWriteError(err, nil, apperrors.ErrAccountHasTransactions)
	}
	return nil
}

func roundNull(d decimal.NullDecimal) decimal.NullDecimal {
	if !d.Valid {
		return d
	}
	return decimal.NewNullDecimal(d.Decimal.Round(2))
}
