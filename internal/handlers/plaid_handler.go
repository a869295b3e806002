package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/services"
)

// PlaidHandler exposes bank linking and the sync engine.
type PlaidHandler struct {
	syncService  services.SyncServicer
	auditService services.AuditServicer
}

// NewPlaidHandler creates a new PlaidHandler.
func NewPlaidHandler(syncService services.SyncServicer, auditService services.AuditServicer) *PlaidHandler {
	return &PlaidHandler{syncService: syncService, auditService: auditService}
}

// ExchangePublicTokenRequest carries the token returned by the Link flow.
type ExchangePublicTokenRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
}

// CreateLinkToken asks the provider for a Link token.
// @Summary     Create a Link token
// @Tags        plaid
// @Produce     json
// @Success     200 {object} plaid.LinkToken
// @Failure     502 {object} ErrorResponse "Provider request failed"
// @Router      /plaid/link-token [post]
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	token, err := h.syncService.CreateLinkToken(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// ExchangePublicToken links a new item and imports its accounts.
// @Summary     Exchange a public token
// @Description Stores the item's credential encrypted and syncs its accounts
// @Tags        plaid
// @Accept      json
// @Produce     json
// @Param       request body ExchangePublicTokenRequest true "Public token"
// @Success     201 {object} services.LinkResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     502 {object} ErrorResponse "Provider request failed"
// @Router      /plaid/exchange-public-token [post]
func (h *PlaidHandler) ExchangePublicToken(c *gin.Context) {
	var req ExchangePublicTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.syncService.LinkItem(c.Request.Context(), req.PublicToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("LINK_ITEM", "plaid_item", result.Item.ID, c.ClientIP(),
		map[string]any{"plaid_item_id": result.Item.PlaidItemID, "accounts": len(result.Accounts)})

	c.JSON(http.StatusCreated, result)
}

// ListItems lists linked items.
// @Summary     List linked items
// @Tags        plaid
// @Produce     json
// @Success     200 {array} models.PlaidItem
// @Router      /plaid/items [get]
func (h *PlaidHandler) ListItems(c *gin.Context) {
	items, err := h.syncService.ListItems(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteItem unlinks an item. Its accounts and transactions are kept.
// @Summary     Delete a linked item
// @Tags        plaid
// @Produce     json
// @Param       id path string true "Item ID or provider item ID"
// @Success     200 {object} map[string]string
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Sync in progress"
// @Router      /plaid/items/{id} [delete]
func (h *PlaidHandler) DeleteItem(c *gin.Context) {
	item, err := h.syncService.DeleteItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("DELETE_ITEM", "plaid_item", item.ID, c.ClientIP(), map[string]any{
		"plaid_item_id": item.PlaidItemID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// SyncAccounts refreshes the item's accounts and balances.
// @Summary     Sync accounts
// @Tags        plaid
// @Produce     json
// @Param       id path string true "Item ID or provider item ID"
// @Success     200 {object} map[string]interface{}
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     502 {object} ErrorResponse "Provider request failed"
// @Router      /plaid/items/{id}/sync-accounts [post]
func (h *PlaidHandler) SyncAccounts(c *gin.Context) {
	ref := c.Param("id")
	n, err := h.syncService.SyncAccounts(c.Request.Context(), ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item_id": ref, "accounts_synced": n})
}

// SyncTransactions pulls new transaction history for the item.
// @Summary     Sync transactions
// @Description Applies every page since the stored cursor, then advances the cursor
// @Tags        plaid
// @Produce     json
// @Param       id path string true "Item ID or provider item ID"
// @Success     200 {object} services.SyncResult
// @Failure     404 {object} ErrorResponse "Item not found"
// @Failure     409 {object} ErrorResponse "Sync already running"
// @Failure     412 {object} ErrorResponse "Transaction for an unsynced account"
// @Failure     502 {object} ErrorResponse "Provider request failed"
// @Router      /plaid/items/{id}/sync-transactions [post]
func (h *PlaidHandler) SyncTransactions(c *gin.Context) {
	result, err := h.syncService.SyncTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log("SYNC_TRANSACTIONS", "plaid_item", result.ItemID, c.ClientIP(),
		map[string]any{"added": result.Added, "modified": result.Modified, "removed": result.Removed})

	c.JSON(http.StatusOK, result)
}
