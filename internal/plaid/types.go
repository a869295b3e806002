package plaid

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is Plaid's calendar date format.
const DateLayout = "2006-01-02"

// Date is a calendar day encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// UnmarshalJSON parses a quoted YYYY-MM-DD date.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", s, err)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the date as a quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// Balances is the balance block of an account. Plaid omits values it
// cannot determine.
type Balances struct {
	Current         decimal.NullDecimal `json:"current"`
	Available       decimal.NullDecimal `json:"available"`
	ISOCurrencyCode *string             `json:"iso_currency_code"`
}

// Account is one account of an item.
type Account struct {
	AccountID string   `json:"account_id"`
	Name      string   `json:"name"`
	Mask      *string  `json:"mask"`
	Type      string   `json:"type"`
	Subtype   *string  `json:"subtype"`
	Balances  Balances `json:"balances"`
}

// Transaction is an added or modified transaction. Amount uses the feed's
// sign convention: positive for money coming in, negative for money going out.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	AccountID     string          `json:"account_id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          Date            `json:"date"`
	Datetime      *time.Time      `json:"datetime"`
	Pending       bool            `json:"pending"`
}

// RemovedTransaction identifies a transaction deleted upstream.
type RemovedTransaction struct {
	TransactionID string `json:"transaction_id"`
}

// SyncPage is one page of /transactions/sync.
type SyncPage struct {
	Added      []Transaction        `json:"added"`
	Modified   []Transaction        `json:"modified"`
	Removed    []RemovedTransaction `json:"removed"`
	NextCursor string               `json:"next_cursor"`
	HasMore    bool                 `json:"has_more"`
}

// ExchangeResult is the response of /item/public_token/exchange.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// LinkToken is the response of /link/token/create.
type LinkToken struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
}

// APIError is Plaid's error envelope, returned for any non-200 response.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid %d %s/%s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
