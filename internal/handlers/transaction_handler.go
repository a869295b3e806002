package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/models"
	"pennywise/internal/pagination"
	"pennywise/internal/patch"
	"pennywise/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for recording a
// manual transaction. Positive amounts are money out.
type CreateTransactionRequest struct {
	AccountID   string           `json:"account_id" binding:"required,uuid"`
	CategoryID  *string          `json:"category_id" binding:"omitempty,uuid"`
	Description *string          `json:"description" binding:"omitempty,max=500"`
	Amount      *decimal.Decimal `json:"amount" swaggertype:"string" binding:"required,money"`
	Date        string           `json:"date" binding:"required,datetime=2006-01-02" example:"2024-03-04"`
	Datetime    *time.Time       `json:"datetime"`
	Pending     bool             `json:"pending"`
}

// UpdateTransactionRequest carries the user-editable fields. A null
// category_id marks the transaction uncategorized.
type UpdateTransactionRequest struct {
	CategoryID  patch.Field[*string] `json:"category_id" swaggertype:"string" binding:"omitempty,uuid"`
	Description patch.Field[*string] `json:"description" swaggertype:"string" binding:"omitempty,max=500"`
}

// CreateTransaction handles recording a manual transaction.
// @Summary     Create a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be formatted as YYYY-MM-DD"))
		return
	}

	transaction, err := h.transactionService.CreateTransaction(services.TransactionInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      *req.Amount,
		Date:        date,
		Datetime:    req.Datetime,
		Pending:     req.Pending,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]any{"account_id": transaction.AccountID, "amount": transaction.Amount.StringFixed(2), "date": req.Date})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions lists transactions newest first.
// @Summary     List transactions
// @Description Filtered, paginated list ordered by date then id, both descending
// @Tags        transactions
// @Produce     json
// @Param       account_id    query string false "Filter by account"
// @Param       category_id   query string false "Filter by category"
// @Param       start_date    query string false "Earliest date (YYYY-MM-DD, inclusive)"
// @Param       end_date      query string false "Latest date (YYYY-MM-DD, inclusive)"
// @Param       uncategorized query bool   false "Only transactions without a category"
// @Param       q             query string false "Case-insensitive description search"
// @Param       limit         query int    false "Page size (default 50, max 200)"
// @Param       offset        query int    false "Rows to skip"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		bindError(c, err)
		return
	}

	filter, err := transactionFilterFromQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.ListTransactions(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func transactionFilterFromQuery(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter
	var err error

	if filter.AccountID, err = parseUUIDQuery(c, "account_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = parseUUIDQuery(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.StartDate, err = parseDateQuery(c, "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDateQuery(c, "end_date"); err != nil {
		return filter, err
	}
	uncategorized, err := parseBoolQuery(c, "uncategorized")
	if err != nil {
		return filter, err
	}
	filter.Uncategorized = uncategorized != nil && *uncategorized
	filter.Search = strings.TrimSpace(c.Query("q"))

	return filter, nil
}

// GetTransaction handles retrieving a specific transaction.
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction changes the category or description of a transaction.
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} models.Transaction
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction or category not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(id, services.TransactionUpdate{
		CategoryID:  req.CategoryID,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{}
	if req.CategoryID.Set {
		changes["category_id"] = transaction.CategoryID
	}
	if req.Description.Set {
		changes["description"] = transaction.Description
	}
	h.auditService.Log("UPDATE_TRANSACTION", "transaction", id, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction.
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_TRANSACTION", "transaction", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
