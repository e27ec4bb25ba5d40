package email

import (
	"errors"
	"html/template"
	"testing"

	"github.com/resendlabs/resend-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, send func(*resend.SendEmailRequest) (string, error)) *EmailService {
	t.Helper()
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	require.NoError(t, err)
	return &EmailService{
		from:      "shop@example.com",
		fromName:  "Shop",
		templates: tmpl,
		logger:    zap.NewNop(),
		send:      send,
	}
}

func TestSendReceiptEmail(t *testing.T) {
	var got *resend.SendEmailRequest
	svc := newTestService(t, func(req *resend.SendEmailRequest) (string, error) {
		got = req
		return "em_1", nil
	})

	err := svc.SendReceiptEmail("buyer@example.com", ReceiptEmail{
		OrderID:    "42",
		Amount:     "150.000 VNĐ",
		Items:      []ReceiptLine{{Name: "Phở bò", Quantity: 2, Total: "100.000"}},
		ReceiptURL: "https://cdn.example.com/receipts/42.pdf",
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "Shop <shop@example.com>", got.From)
	assert.Equal(t, []string{"buyer@example.com"}, got.To)
	assert.Equal(t, "Your receipt for order 42", got.Subject)
	assert.Contains(t, got.Html, "Phở bò")
	assert.Contains(t, got.Html, "https://cdn.example.com/receipts/42.pdf")
	assert.Contains(t, got.Html, "Thank you for your purchase!")
}

func TestSendWelcomeEmailWrapsFailure(t *testing.T) {
	boom := errors.New("rate limited")
	svc := newTestService(t, func(*resend.SendEmailRequest) (string, error) {
		return "", boom
	})

	err := svc.SendWelcomeEmail("new@example.com", "New User")
	assert.ErrorIs(t, err, boom)
}

func TestNewEmailServiceNeedsCredentials(t *testing.T) {
	_, err := NewEmailService("", "", "", nil)
	assert.Error(t, err)

	svc, err := NewEmailService("re_test", "shop@example.com", "Shop", nil)
	require.NoError(t, err)
	assert.NotNil(t, svc.templates.Lookup("receipt.html"))
}
