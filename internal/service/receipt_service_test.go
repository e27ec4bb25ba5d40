package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sefazor/storefront/internal/models"
	"github.com/sefazor/storefront/pkg/email"
	"github.com/sefazor/storefront/pkg/receipt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStorage) Upload(_ context.Context, key string, r io.Reader, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (m *memoryStorage) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

type mailRecorder struct {
	to   string
	data email.ReceiptEmail
}

func (m *mailRecorder) SendReceiptEmail(to string, data email.ReceiptEmail) error {
	m.to = to
	m.data = data
	return nil
}

func paidOrder() (models.Order, models.PosPayment) {
	order := models.Order{
		ID:         "42",
		TotalPrice: 150000,
		Status:     models.OrderStatusPaid,
		Items: []models.OrderItem{
			{Name: "Coffee", Quantity: 2, Price: 50000},
			{Name: "Cake", Quantity: 1, Price: 50000},
		},
	}
	return order, models.PosPayment{ID: "pp1", OrderID: "42", Method: models.PosMethodCash, Status: models.PosPaymentPaid}
}

func TestBuildReceipt(t *testing.T) {
	order, payment := paidOrder()

	rc := BuildReceipt(order, payment, 200000, 50000)
	assert.Equal(t, "42", rc.OrderID)
	assert.Equal(t, "Cash", rc.Method)
	assert.Equal(t, 200000.0, rc.CustomerPaid)
	assert.Len(t, rc.Items, 2)

	exact := BuildReceipt(order, payment, 0, 0)
	assert.Equal(t, 150000.0, exact.CustomerPaid)
}

func TestShareWritesUploadsAndEmails(t *testing.T) {
	dir := t.TempDir()
	store := &memoryStorage{}
	mailer := &mailRecorder{}
	svc := NewReceiptService(dir, store, mailer, receipt.Options{Locale: "vi"}, nil)

	order, payment := paidOrder()
	shared, err := svc.Share(context.Background(), BuildReceipt(order, payment, 200000, 50000), ShareOptions{
		Upload:  true,
		EmailTo: "buyer@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "receipt-42.pdf"), shared.Path)
	onDisk, err := os.ReadFile(shared.Path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(onDisk, []byte("%PDF-")))

	assert.Equal(t, "https://cdn.example.com/receipts/receipt-42.pdf", shared.URL)
	assert.Equal(t, onDisk, store.objects["receipts/receipt-42.pdf"])

	assert.True(t, shared.Emailed)
	assert.Equal(t, "buyer@example.com", mailer.to)
	assert.Equal(t, "150.000 VNĐ", mailer.data.Amount)
	assert.Equal(t, "50.000 VNĐ", mailer.data.Change)
	assert.Equal(t, shared.URL, mailer.data.ReceiptURL)
}

func TestShareKeepsLocalFileOnUploadFailure(t *testing.T) {
	dir := t.TempDir()
	svc := NewReceiptService(dir, &memoryStorage{err: errors.New("bucket gone")}, nil, receipt.Options{}, nil)

	order, payment := paidOrder()
	shared, err := svc.Share(context.Background(), BuildReceipt(order, payment, 0, 0), ShareOptions{Upload: true})
	require.Error(t, err)
	require.NotNil(t, shared)
	_, statErr := os.Stat(shared.Path)
	assert.NoError(t, statErr)
}

func TestShareWithoutMailer(t *testing.T) {
	svc := NewReceiptService(t.TempDir(), nil, nil, receipt.Options{}, nil)

	order, payment := paidOrder()
	_, err := svc.Share(context.Background(), BuildReceipt(order, payment, 0, 0), ShareOptions{EmailTo: "x@example.com"})
	assert.Error(t, err)
}
