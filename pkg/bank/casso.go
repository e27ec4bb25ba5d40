package bank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sefazor/storefront/internal/models"
)

const (
	transactionsPath = "/v2/transactions"
	defaultPageSize  = 100
)

var ErrNoAPIKey = errors.New("bank api key is not configured")

// Client reads settled transfers from a Casso compatible feed.
type Client struct {
	http   *resty.Client
	apiKey string
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type transactionsResponse struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Data    struct {
		TotalRecords int                      `json:"totalRecords"`
		Records      []models.BankTransaction `json:"records"`
	} `json:"data"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("bank api base url is empty")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", "apikey "+opts.APIKey)

	return &Client{http: rc, apiKey: opts.APIKey}, nil
}

// Transactions returns the most recent transfers, newest first.
func (c *Client) Transactions(ctx context.Context) ([]models.BankTransaction, error) {
	var out transactionsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sort", "DESC").
		SetQueryParam("pageSize", fmt.Sprintf("%d", defaultPageSize)).
		SetResult(&out).
		Get(transactionsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch bank transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch bank transactions: status=%d", resp.StatusCode())
	}
	if out.Error != 0 {
		return nil, fmt.Errorf("fetch bank transactions: %s", out.Message)
	}
	return out.Data.Records, nil
}

// Match describes a transfer we are waiting for.
type Match struct {
	AccountNo string
	Amount    float64
	Reference string
}

// Matches reports whether tx pays m. The receiving account and amount must
// agree and the description must contain the reference.
func (m Match) Matches(tx models.BankTransaction) bool {
	if tx.BankSubAccID != m.AccountNo {
		return false
	}
	if math.Abs(tx.Amount-m.Amount) >= 0.5 {
		return false
	}
	return containsReference(tx.Description, m.Reference)
}

// containsReference is strings.Contains that refuses a match running into
// more letters or digits, so "Order 4" does not claim "Order 42".
func containsReference(description, reference string) bool {
	if reference == "" {
		return false
	}
	for offset := 0; ; {
		i := strings.Index(description[offset:], reference)
		if i < 0 {
			return false
		}
		end := offset + i + len(reference)
		if end == len(description) || !isAlnum(description[end]) {
			return true
		}
		offset += i + 1
	}
}

func isAlnum(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// FindPayment returns the first transfer matching m, or nil when none arrived yet.
func (c *Client) FindPayment(ctx context.Context, m Match) (*models.BankTransaction, error) {
	txs, err := c.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if m.Matches(txs[i]) {
			return &txs[i], nil
		}
	}
	return nil, nil
}
