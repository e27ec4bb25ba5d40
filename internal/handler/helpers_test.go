package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sefazor/storefront/internal/backend"
	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/internal/repository"
	"github.com/sefazor/storefront/pkg/database"
	"github.com/sefazor/storefront/pkg/payment"
	"github.com/sefazor/storefront/pkg/qrcode"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testBankKey       = "bank-key"
	testWebhookSecret = "whsec_test"
)

type fakeCards struct {
	mu       sync.Mutex
	requests []payment.CheckoutRequest
}

func (f *fakeCards) CreateCheckoutSession(req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return &payment.CheckoutSession{ID: "cs_" + req.Metadata["payment_id"], URL: "https://checkout.test/" + req.Metadata["payment_id"]}, nil
}

type sandbox struct {
	t     *testing.T
	app   *fiber.App
	db    *gorm.DB
	svc   Services
	cards *fakeCards
}

func newSandbox(t *testing.T) *sandbox {
	t.Helper()
	db, err := database.Open(database.Options{SQLitePath: filepath.Join(t.TempDir(), "sandbox.db")}, nil)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.Seed(db))

	users := repository.NewUserRepository(db)
	packages := repository.NewPackageRepository(db)
	purchases := repository.NewPurchaseRepository(db)
	payments := repository.NewPaymentRepository(db)

	cards := &fakeCards{}
	svc := Services{
		Auth:      backend.NewAuthService(users, "test-secret", nil, nil),
		Packages:  backend.NewPackageService(packages, purchases, users),
		Purchases: backend.NewPurchaseService(packages, purchases, payments, users, nil),
		Payments: backend.NewPaymentService(payments, purchases, users,
			qrcode.NewQRService("http://sandbox.test/pay/"), cards,
			backend.PaymentOptions{PublicURL: "http://sandbox.test"}, nil),
		Pos:  backend.NewPosService(repository.NewPosRepository(db), nil),
		Bank: backend.NewBankService(repository.NewBankRepository(db)),
	}

	app := NewApp(svc, Options{BankAPIKey: testBankKey, WebhookSecret: testWebhookSecret})
	return &sandbox{t: t, app: app, db: db, svc: svc, cards: cards}
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *sandbox) send(method, path, token string, body interface{}, headers map[string]string) (int, []byte) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	return resp.StatusCode, raw
}

func (s *sandbox) sendRaw(method, path string, body []byte, headers map[string]string) int {
	s.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	resp.Body.Close()
	return resp.StatusCode
}

// call sends a JSON request and decodes the envelope, and its data into out when given.
func (s *sandbox) call(method, path, token string, body, out interface{}) (int, envelope) {
	s.t.Helper()
	status, raw := s.send(method, path, token, body, nil)
	var env envelope
	require.NoError(s.t, json.Unmarshal(raw, &env), string(raw))
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		require.NoError(s.t, json.Unmarshal(env.Data, out))
	}
	return status, env
}

// signup registers and logs in a user, returning the token and user id.
func (s *sandbox) signup(username string) (string, string) {
	s.t.Helper()
	status, _ := s.call(http.MethodPost, "/v1/api/users", "", models.RegisterRequest{
		FullName: "Test " + username,
		Username: username,
		Password: "secret123",
		Email:    username + "@example.com",
	}, nil)
	require.Equal(s.t, http.StatusCreated, status)

	var login models.LoginResponse
	status, _ = s.call(http.MethodPost, "/v1/api/users/login", "", models.LoginRequest{Username: username, Password: "secret123"}, &login)
	require.Equal(s.t, http.StatusOK, status)

	var user models.User
	status, _ = s.call(http.MethodGet, "/v1/api/users/current", login.AccessToken, nil, &user)
	require.Equal(s.t, http.StatusOK, status)
	return login.AccessToken, user.ID
}

func (s *sandbox) packageNamed(name string) models.Package {
	s.t.Helper()
	var page models.Page[models.Package]
	status, _ := s.call(http.MethodPost, "/v1/api/packages/search", "", models.SearchRequest[models.PackageSearchCondition]{
		SearchCondition: models.PackageSearchCondition{Keyword: name},
		PageInfo:        models.PageRequest{PageNum: 1, PageSize: 10},
	}, &page)
	require.Equal(s.t, http.StatusOK, status)
	require.NotEmpty(s.t, page.PageData, "package %q not seeded", name)
	return page.PageData[0]
}
