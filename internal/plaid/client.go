// Package plaid is an HTTP client for the subset of the Plaid API used to
// link items and sync accounts and transactions.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// APIVersion is sent as the Plaid-Version header.
const APIVersion = "2020-09-14"

// Environment selects the Plaid host.
type Environment string

const (
	Sandbox     Environment = "sandbox"
	Development Environment = "development"
	Production  Environment = "production"
)

var baseURLs = map[Environment]string{
	Sandbox:     "https://sandbox.plaid.com",
	Development: "https://development.plaid.com",
	Production:  "https://production.plaid.com",
}

// Config configures a Client. BaseURL overrides the environment host.
type Config struct {
	ClientID    string
	Secret      string
	Environment Environment
	BaseURL     string
	ClientName  string
	// Attempts is the total number of tries for a request that fails with
	// 429 or 5xx. Values below 1 mean a single try.
	Attempts   uint
	RetryDelay time.Duration
}

// Client communicates with the Plaid API.
type Client struct {
	baseURL    string
	clientID   string
	secret     string
	clientName string
	attempts   uint
	retryDelay time.Duration
	httpClient *http.Client
}

// NewClient creates a new Plaid API client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = baseURLs[cfg.Environment]
		if !ok {
			return nil, fmt.Errorf("unknown plaid environment %q", cfg.Environment)
		}
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		clientName: cfg.ClientName,
		attempts:   attempts,
		retryDelay: delay,
		httpClient: httpClient,
	}, nil
}

type credentials struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

// GetAccounts returns the current accounts and balances for an item.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	body := struct {
		credentials
		AccessToken string `json:"access_token"`
	}{c.creds(), accessToken}

	var result struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/get", body, &result); err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	return result.Accounts, nil
}

// SyncTransactions fetches one page of transaction changes after cursor.
// An empty cursor starts from the beginning of the item's history.
func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string, count int) (*SyncPage, error) {
	body := struct {
		credentials
		AccessToken string `json:"access_token"`
		Cursor      string `json:"cursor,omitempty"`
		Count       int    `json:"count,omitempty"`
	}{c.creds(), accessToken, cursor, count}

	var page SyncPage
	if err := c.post(ctx, "/transactions/sync", body, &page); err != nil {
		return nil, fmt.Errorf("syncing transactions: %w", err)
	}
	return &page, nil
}

// ExchangePublicToken trades a Link public token for a long-lived access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	body := struct {
		credentials
		PublicToken string `json:"public_token"`
	}{c.creds(), publicToken}

	var result ExchangeResult
	if err := c.post(ctx, "/item/public_token/exchange", body, &result); err != nil {
		return nil, fmt.Errorf("exchanging public token: %w", err)
	}
	return &result, nil
}

// CreateLinkToken creates a Link token for the transactions product.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (*LinkToken, error) {
	type user struct {
		ClientUserID string `json:"client_user_id"`
	}
	body := struct {
		credentials
		ClientName   string   `json:"client_name"`
		Language     string   `json:"language"`
		CountryCodes []string `json:"country_codes"`
		Products     []string `json:"products"`
		User         user     `json:"user"`
	}{c.creds(), c.clientName, "en", []string{"US"}, []string{"transactions"}, user{clientUserID}}

	var result LinkToken
	if err := c.post(ctx, "/link/token/create", body, &result); err != nil {
		return nil, fmt.Errorf("creating link token: %w", err)
	}
	return &result, nil
}

func (c *Client) creds() credentials {
	return credentials{ClientID: c.clientID, Secret: c.secret}
}

// post sends a JSON request, retrying 429 and 5xx responses, and decodes
// a 200 response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	return retry.Do(
		func() error {
			return c.do(ctx, path, payload, out)
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Retryable()
		}),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) do(ctx context.Context, path string, payload []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Plaid-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.ErrorCode == "" {
		apiErr.ErrorType = "API_ERROR"
		apiErr.ErrorCode = http.StatusText(resp.StatusCode)
		apiErr.ErrorMessage = strings.TrimSpace(string(raw))
	}
	return apiErr
}
