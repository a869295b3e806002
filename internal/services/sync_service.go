package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "pennywise/internal/errors"
	"pennywise/internal/logger"
	"pennywise/internal/models"
	"pennywise/internal/plaid"
	"pennywise/internal/uuid"
)

const (
	// linkClientUserID identifies the single local user to the provider.
	linkClientUserID = "pennywise-user"

	// mutationDuringPagination is returned by the provider when data changed
	// while a multi-page sync was in flight. The whole run restarts from the
	// cursor it began with.
	mutationDuringPagination = "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION"
	maxPaginationRestarts    = 3
)

// SyncOptions tunes the sync engine.
type SyncOptions struct {
	// PageSize is the number of transactions requested per page (1..500).
	PageSize int
	// LockTTL bounds how long a crashed sync can block the item.
	LockTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// syncService pulls accounts and transactions from the provider.
type syncService struct {
	db       *gorm.DB
	feed     FeedClient
	cipher   TokenCipher
	pageSize int
	lockTTL  time.Duration
	now      func() time.Time
	inflight singleflight.Group
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(db *gorm.DB, feed FeedClient, cipher TokenCipher, opts SyncOptions) SyncServicer {
	if opts.PageSize <= 0 || opts.PageSize > 500 {
		opts.PageSize = 500
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &syncService{
		db:       db,
		feed:     feed,
		cipher:   cipher,
		pageSize: opts.PageSize,
		lockTTL:  opts.LockTTL,
		now:      opts.Now,
	}
}

// CreateLinkToken asks the provider for a token to start the link flow.
func (s *syncService) CreateLinkToken(ctx context.Context) (*plaid.LinkToken, error) {
	token, err := s.feed.CreateLinkToken(ctx, linkClientUserID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
	}
	return token, nil
}

// LinkItem exchanges a public token, stores the encrypted access token and
// pulls the item's accounts. Re-linking an existing item replaces its token
// and keeps its cursor.
func (s *syncService) LinkItem(ctx context.Context, publicToken string) (*LinkResult, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "public_token is required")
	}

	exchanged, err := s.feed.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
	}

	sealed, err := s.cipher.Encrypt(exchanged.AccessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	db := s.db.WithContext(ctx)
	var item models.PlaidItem
	err = db.Where("plaid_item_id = ?", exchanged.ItemID).First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.PlaidItem{PlaidItemID: exchanged.ItemID, AccessTokenEncrypted: sealed}
		if err := db.Create(&item).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	case err != nil:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	default:
		if err := db.Model(&item).Update("access_token_encrypted", sealed).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	logger.With("item_id", item.ID, "plaid_item_id", item.PlaidItemID).Info("linked item")

	if _, err := s.syncAccounts(ctx, &item, exchanged.AccessToken); err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := db.Where("item_id = ?", item.ID).Order("name ASC, id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	return &LinkResult{Item: &item, Accounts: accounts}, nil
}

// ListItems returns linked items, oldest first.
func (s *syncService) ListItems(ctx context.Context) ([]models.PlaidItem, error) {
	var items []models.PlaidItem
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if items == nil {
		items = []models.PlaidItem{}
	}
	return items, nil
}

// DeleteItem forgets an item and returns it. Its accounts and their
// transactions stay and become manual. An item with a live sync lease is
// refused with ErrSyncInProgress.
func (s *syncService) DeleteItem(ctx context.Context, itemRef string) (*models.PlaidItem, error) {
	item, err := s.findItem(ctx, itemRef)
	if err != nil {
		return nil, err
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND (sync_locked_until IS NULL OR sync_locked_until < ?)", item.ID, s.now().UTC()).
		Delete(&models.PlaidItem{})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrSyncInProgress
	}
	return item, nil
}

// SyncAccounts refreshes the accounts and balances of an item. It returns
// the number of accounts reported by the provider.
func (s *syncService) SyncAccounts(ctx context.Context, itemRef string) (int, error) {
	item, err := s.findItem(ctx, itemRef)
	if err != nil {
		return 0, err
	}

	token, err := s.cipher.Decrypt(item.AccessTokenEncrypted)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
	}

	return s.syncAccounts(ctx, item, token)
}

// SyncTransactions refreshes accounts, then pages through the provider's
// transaction changes from the stored cursor. Each page is applied in its
// own database transaction; the cursor only moves once every page has been
// applied, so a failed run is retried from where the last good run ended.
//
// Concurrent calls for the same item inside this process share one run,
// which is not canceled when the caller that started it goes away.
// Across processes a lease on the item row rejects the second caller with
// ErrSyncInProgress.
func (s *syncService) SyncTransactions(ctx context.Context, itemRef string) (*SyncResult, error) {
	item, err := s.findItem(ctx, itemRef)
	if err != nil {
		return nil, err
	}

	// The shared run outlives any single caller; each caller only stops
	// waiting when its own context ends.
	runCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(item.ID, func() (any, error) {
		return s.runTransactionSync(runCtx, item)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.With("item_id", item.ID).Debug("joined in-flight sync")
		}
		return res.Val.(*SyncResult), nil
	}
}

func (s *syncService) runTransactionSync(ctx context.Context, item *models.PlaidItem) (*SyncResult, error) {
	log := logger.With("item_id", item.ID, "plaid_item_id", item.PlaidItemID)

	lease, err := s.acquireLease(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLease(item.ID, lease)

	token, err := s.cipher.Decrypt(item.AccessTokenEncrypted)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
	}

	accounts, err := s.syncAccounts(ctx, item, token)
	if err != nil {
		return nil, err
	}

	startCursor := ""
	if item.TransactionsCursor != nil {
		startCursor = *item.TransactionsCursor
	}

	var result *SyncResult
	for restarts := 0; ; restarts++ {
		result, err = s.pullPages(ctx, item.ID, token, startCursor)
		if err == nil {
			break
		}
		var apiErr *plaid.APIError
		if restarts < maxPaginationRestarts && errors.As(err, &apiErr) && apiErr.ErrorCode == mutationDuringPagination {
			log.Warnw("provider data changed during pagination, restarting", "restart", restarts+1)
			continue
		}
		return nil, err
	}
	result.AccountsSynced = accounts
	result.InitialBackfill = startCursor == ""

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&models.PlaidItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"transactions_cursor": result.Cursor,
			"last_synced_at":      now,
		}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	item.TransactionsCursor = &result.Cursor
	item.LastSyncedAt = &now

	log.Infow("transaction sync complete",
		"pages", result.Pages,
		"added", result.Added,
		"modified", result.Modified,
		"removed", result.Removed,
	)
	return result, nil
}

// pullPages fetches and applies pages until the provider reports no more.
func (s *syncService) pullPages(ctx context.Context, itemID, token, cursor string) (*SyncResult, error) {
	result := &SyncResult{ItemID: itemID, Cursor: cursor}

	for {
		page, err := s.feed.SyncTransactions(ctx, token, result.Cursor, s.pageSize)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
		}
		if page.HasMore && page.NextCursor == "" {
			return nil, apperrors.WithMessage(apperrors.ErrUpstreamFailure, "provider reported more pages without a cursor")
		}

		var added, modified, removed int
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			added, modified, removed, err = applyPage(tx, page)
			return err
		})
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return nil, appErr
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result.Added += added
		result.Modified += modified
		result.Removed += removed
		result.Pages++
		result.Cursor = page.NextCursor

		if !page.HasMore {
			return result, nil
		}
	}
}

// applyPage upserts added and modified transactions and deletes removed ones.
// Amounts are stored with the ledger's sign, the opposite of the feed's.
// Categories assigned locally are never overwritten.
func applyPage(tx *gorm.DB, page *plaid.SyncPage) (added, modified, removed int, err error) {
	accountIDs, err := resolveAccounts(tx, page)
	if err != nil {
		return 0, 0, 0, err
	}

	upsert := clause.OnConflict{
		Columns: []clause.Column{{Name: "plaid_transaction_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_id", "description", "amount", "date", "datetime", "pending", "updated_at",
		}),
	}

	for _, batch := range [][]plaid.Transaction{page.Added, page.Modified} {
		for _, rec := range batch {
			row := ledgerTransaction(rec, accountIDs[rec.AccountID])
			if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
				return 0, 0, 0, fmt.Errorf("upserting transaction %s: %w", rec.TransactionID, err)
			}
		}
	}

	if len(page.Removed) > 0 {
		ids := make([]string, 0, len(page.Removed))
		for _, r := range page.Removed {
			ids = append(ids, r.TransactionID)
		}
		res := tx.Where("plaid_transaction_id IN ?", ids).Delete(&models.Transaction{})
		if res.Error != nil {
			return 0, 0, 0, fmt.Errorf("removing transactions: %w", res.Error)
		}
		removed = int(res.RowsAffected)
	}

	return len(page.Added), len(page.Modified), removed, nil
}

// resolveAccounts maps every provider account id referenced by the page to a
// local account id. A transaction for an unknown account aborts the page.
func resolveAccounts(tx *gorm.DB, page *plaid.SyncPage) (map[string]string, error) {
	wanted := make(map[string]struct{})
	for _, batch := range [][]plaid.Transaction{page.Added, page.Modified} {
		for _, rec := range batch {
			wanted[rec.AccountID] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return map[string]string{}, nil
	}

	ids := make([]string, 0, len(wanted))
	for id := range wanted {
		ids = append(ids, id)
	}

	var accounts []models.Account
	if err := tx.Where("plaid_account_id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	resolved := make(map[string]string, len(accounts))
	for _, a := range accounts {
		resolved[*a.PlaidAccountID] = a.ID
	}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			return nil, apperrors.WithMessage(apperrors.ErrAccountNotSynced,
				fmt.Sprintf("transaction references account %s which has not been synced", id))
		}
	}
	return resolved, nil
}

func ledgerTransaction(rec plaid.Transaction, accountID string) models.Transaction {
	plaidID := rec.TransactionID
	row := models.Transaction{
		PlaidTransactionID: &plaidID,
		AccountID:          accountID,
		Amount:             rec.Amount.Neg().Round(2),
		Date:               models.NormalizeDate(rec.Date.Time),
		Pending:            rec.Pending,
	}
	if rec.Name != "" {
		name := rec.Name
		row.Description = &name
	}
	if rec.Datetime != nil {
		dt := rec.Datetime.UTC()
		row.Datetime = &dt
	}
	return row
}

// syncAccounts upserts the provider's accounts for item and copies their
// balances. Accounts the provider stops reporting are left untouched.
func (s *syncService) syncAccounts(ctx context.Context, item *models.PlaidItem, token string) (int, error) {
	remote, err := s.feed.GetAccounts(ctx, token)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrUpstreamFailure, err)
	}

	now := s.now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ra := range remote {
			if err := upsertAccount(tx, item.ID, ra, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return len(remote), nil
}

func upsertAccount(tx *gorm.DB, itemID string, ra plaid.Account, now time.Time) error {
	current := decimal.Zero
	if ra.Balances.Current.Valid {
		current = ra.Balances.Current.Decimal.Round(2)
	}
	available := roundNull(ra.Balances.Available)
	currency := defaultCurrency
	if ra.Balances.ISOCurrencyCode != nil && *ra.Balances.ISOCurrencyCode != "" {
		currency = strings.ToUpper(*ra.Balances.ISOCurrencyCode)
	}

	var existing models.Account
	err := tx.Where("plaid_account_id = ?", ra.AccountID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		plaidID := ra.AccountID
		account := &models.Account{
			PlaidAccountID:     &plaidID,
			ItemID:             &itemID,
			Name:               ra.Name,
			Mask:               ra.Mask,
			Type:               ra.Type,
			Subtype:            ra.Subtype,
			CurrentBalance:     current,
			AvailableBalance:   available,
			Currency:           currency,
			BalanceLastUpdated: &now,
			IsActive:           true,
		}
		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("creating account %s: %w", ra.AccountID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading account %s: %w", ra.AccountID, err)
	}

	if err := tx.Model(&existing).Updates(map[string]any{
		"item_id":              itemID,
		"name":                 ra.Name,
		"mask":                 ra.Mask,
		"type":                 ra.Type,
		"subtype":              ra.Subtype,
		"current_balance":      current,
		"available_balance":    available,
		"currency":             currency,
		"balance_last_updated": now,
	}).Error; err != nil {
		return fmt.Errorf("updating account %s: %w", ra.AccountID, err)
	}
	return nil
}

// findItem looks an item up by internal id, then by provider item id.
func (s *syncService) findItem(ctx context.Context, ref string) (*models.PlaidItem, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperrors.ErrItemNotFound
	}

	// Postgres rejects non-UUID literals against the id column.
	q := s.db.WithContext(ctx).Where("plaid_item_id = ?", ref)
	if uuid.IsValid(ref) {
		q = s.db.WithContext(ctx).Where("id = ? OR plaid_item_id = ?", ref, ref)
	}

	var item models.PlaidItem
	err := q.First(&item).Error
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrItemNotFound)
	}
	return &item, nil
}

// acquireLease claims the item's sync lease if it is free or expired.
func (s *syncService) acquireLease(ctx context.Context, itemID string) (time.Time, error) {
	now := s.now().UTC()
	until := now.Add(s.lockTTL).Truncate(time.Microsecond)

	res := s.db.WithContext(ctx).Model(&models.PlaidItem{}).
		Where("id = ? AND (sync_locked_until IS NULL OR sync_locked_until < ?)", itemID, now).
		Update("sync_locked_until", until)
	if res.Error != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, apperrors.ErrSyncInProgress
	}
	return until, nil
}

// releaseLease clears the lease if it is still the one we took. It runs
// after the request context may have been canceled.
func (s *syncService) releaseLease(itemID string, until time.Time) {
	err := s.db.Model(&models.PlaidItem{}).
		Where("id = ? AND sync_locked_until = ?", itemID, until).
		Update("sync_locked_until", nil).Error
	if err != nil {
		logger.With("item_id", itemID).Errorw("failed to release sync lease", "error", err)
	}
}
