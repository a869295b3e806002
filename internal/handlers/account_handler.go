package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pennywise/internal/patch"
	"pennywise/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating a manual account.
type CreateAccountRequest struct {
	Name             string              `json:"name" binding:"required,min=1,max=100"`
	Type             string              `json:"type" binding:"required,min=1,max=50"`
	Subtype          *string             `json:"subtype" binding:"omitempty,max=50"`
	Mask             *string             `json:"mask" binding:"omitempty,max=10"`
	CurrentBalance   decimal.Decimal     `json:"current_balance" swaggertype:"string" binding:"money"`
	AvailableBalance decimal.NullDecimal `json:"available_balance" swaggertype:"string"`
	Currency         string              `json:"currency" binding:"omitempty,iso4217"`
}

// UpdateAccountRequest represents a partial account update. Linked accounts
// accept name and is_active only.
type UpdateAccountRequest struct {
	Name             patch.Field[string]              `json:"name" swaggertype:"string" binding:"omitempty,min=1,max=100"`
	IsActive         patch.Field[bool]                `json:"is_active" swaggertype:"boolean"`
	Mask             patch.Field[*string]             `json:"mask" swaggertype:"string" binding:"omitempty,max=10"`
	Type             patch.Field[string]              `json:"type" swaggertype:"string" binding:"omitempty,min=1,max=50"`
	Subtype          patch.Field[*string]             `json:"subtype" swaggertype:"string" binding:"omitempty,max=50"`
	CurrentBalance   patch.Field[decimal.Decimal]     `json:"current_balance" swaggertype:"string" binding:"omitempty,money"`
	AvailableBalance patch.Field[decimal.NullDecimal] `json:"available_balance" swaggertype:"string" binding:"omitempty,money"`
	Currency         patch.Field[string]              `json:"currency" swaggertype:"string" binding:"omitempty,iso4217"`
}

// CreateAccount handles the creation of a manual account.
// @Summary     Create a manual account
// @Description Create an account that is not linked to the bank data provider
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	account, err := h.accountService.CreateAccount(services.AccountInput{
		Name:             req.Name,
		Type:             req.Type,
		Subtype:          req.Subtype,
		Mask:             req.Mask,
		CurrentBalance:   req.CurrentBalance,
		AvailableBalance: req.AvailableBalance,
		Currency:         req.Currency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_ACCOUNT", "account", account.ID, c.ClientIP(),
		map[string]any{"name": account.Name, "type": account.Type, "current_balance": account.CurrentBalance.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts lists accounts ordered by name.
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Param       active_only query bool false "Only active accounts"
// @Success     200 {array} models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	activeOnly, err := parseBoolQuery(c, "active_only")
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.ListAccounts(activeOnly != nil && *activeOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount handles retrieving a specific account.
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount applies a partial update to an account.
// @Summary     Update account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} models.Account
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	account, err := h.accountService.UpdateAccount(id, services.AccountUpdate{
		Name:             req.Name,
		IsActive:         req.IsActive,
		Mask:             req.Mask,
		Type:             req.Type,
		Subtype:          req.Subtype,
		CurrentBalance:   req.CurrentBalance,
		AvailableBalance: req.AvailableBalance,
		Currency:         req.Currency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("UPDATE_ACCOUNT", "account", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount deletes an account that owns no transactions.
// @Summary     Delete account
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Account still has transactions"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_ACCOUNT", "account", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
