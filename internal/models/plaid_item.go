package models

import "time"

// PlaidItem holds the encrypted credential for one provider link and the
// transactions cursor. A nil cursor means transactions were never synced.
type PlaidItem struct {
	Base
	PlaidItemID          string     `gorm:"not null;uniqueIndex:uq_plaid_items_plaid_item_id" json:"plaid_item_id"`
	AccessTokenEncrypted string     `gorm:"not null" json:"-"`
	TransactionsCursor   *string    `json:"-"`
	LastSyncedAt         *time.Time `json:"last_synced_at,omitempty"`

	// SyncLockedUntil is a lease that serializes transaction syncs across
	// processes. Expired leases are free.
	SyncLockedUntil *time.Time `json:"-"`
}

// HasSynced reports whether a transaction sync has completed at least once.
func (p *PlaidItem) HasSynced() bool {
	return p.TransactionsCursor != nil
}
