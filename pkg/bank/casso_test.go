package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sefazor/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `{
  "error": 0,
  "message": "success",
  "data": {
    "totalRecords": 2,
    "records": [
      {"id": 2, "bankSubAccId": "123456", "amount": 90000, "description": "CT Order 7 thanh toan", "when": "2024-05-01 10:00:00"},
      {"id": 1, "bankSubAccId": "123456", "amount": 150000, "description": "MBVCB.123 Order 42 ", "when": "2024-05-01 09:00:00"}
    ]
  }
}`

func newFeedServer(t *testing.T, gotAuth *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v2/transactions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(feed))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFindPaymentMatchesOrder(t *testing.T) {
	var auth string
	server := newFeedServer(t, &auth)

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "key-1"})
	require.NoError(t, err)

	tx, err := client.FindPayment(context.Background(), Match{AccountNo: "123456", Amount: 150000, Reference: "Order 42"})
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.EqualValues(t, 1, tx.ID)
	assert.Equal(t, "apikey key-1", auth)
}

func TestFindPaymentNoMatch(t *testing.T) {
	var auth string
	server := newFeedServer(t, &auth)

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "key-1"})
	require.NoError(t, err)

	tx, err := client.FindPayment(context.Background(), Match{AccountNo: "123456", Amount: 100000, Reference: "Order 42"})
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestMatchRules(t *testing.T) {
	m := Match{AccountNo: "A1", Amount: 5000, Reference: "Order 9"}

	assert.True(t, m.Matches(models.BankTransaction{BankSubAccID: "A1", Amount: 5000, Description: "pay Order 9"}))
	assert.False(t, m.Matches(models.BankTransaction{BankSubAccID: "B2", Amount: 5000, Description: "pay Order 9"}))
	assert.False(t, m.Matches(models.BankTransaction{BankSubAccID: "A1", Amount: 4000, Description: "pay Order 9"}))
	assert.False(t, m.Matches(models.BankTransaction{BankSubAccID: "A1", Amount: 5000, Description: "pay Order 8"}))
	assert.False(t, m.Matches(models.BankTransaction{BankSubAccID: "A1", Amount: 5000, Description: "pay Order 91"}))
	assert.True(t, m.Matches(models.BankTransaction{BankSubAccID: "A1", Amount: 5000, Description: "Order 91 Order 9."}))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "http://localhost"})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestTransactionsSurfacesFeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": 401, "message": "invalid api key"}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "bad"})
	require.NoError(t, err)

	_, err = client.Transactions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}
