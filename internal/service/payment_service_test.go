package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/sefazor/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment(t *testing.T) {
	backend := newFakeBackend(t)
	var got models.CreatePaymentRequest
	backend.handle(http.MethodPost, "/v1/api/payments", func(w http.ResponseWriter, r *http.Request) {
		decodeBody(t, r, &got)
		writeData(w, http.StatusCreated, models.Payment{
			ID:            "pay1",
			PurchaseID:    got.PurchaseID,
			Amount:        got.Amount,
			Method:        got.Method,
			Status:        models.PaymentStatusPending,
			ReferenceCode: "REF1",
			QRCodeURL:     "http://qr/pay1.png",
		})
	})

	svc := NewPaymentService(backend.client(nil), nil, nil)
	payment, err := svc.Create(context.Background(), models.CreatePaymentRequest{
		UserID:     "u1",
		PurchaseID: "pu1",
		Amount:     99000,
		Method:     models.PaymentMethodQRCode,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "REF1", payment.ReferenceCode)
	assert.True(t, ShowQR(payment))
}

func TestCreatePaymentValidatesLocally(t *testing.T) {
	backend := newFakeBackend(t)
	svc := NewPaymentService(backend.client(nil), nil, nil)

	_, err := svc.Create(context.Background(), models.CreatePaymentRequest{UserID: "u1", PurchaseID: "pu1", Method: "bitcoin"})
	assert.Error(t, err)
	_, err = svc.Check(context.Background(), models.CheckPaymentRequest{UserID: "u1"})
	assert.Error(t, err)
	assert.Zero(t, backend.totalCalls())
}

func TestCheckPayment(t *testing.T) {
	backend := newFakeBackend(t)
	backend.handle(http.MethodPost, "/v1/api/payments/check", func(w http.ResponseWriter, r *http.Request) {
		var req models.CheckPaymentRequest
		decodeBody(t, r, &req)
		assert.Equal(t, "REF1", req.ReferenceCode)
		writeData(w, http.StatusOK, models.Payment{ID: "pay1", Status: models.PaymentStatusSuccess})
	})

	svc := NewPaymentService(backend.client(nil), nil, nil)
	payment, err := svc.Check(context.Background(), models.CheckPaymentRequest{UserID: "u1", PaymentID: "pay1", ReferenceCode: "REF1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
}

func TestShowQR(t *testing.T) {
	cases := []struct {
		name    string
		payment *models.Payment
		want    bool
	}{
		{name: "nil", payment: nil, want: false},
		{name: "qr pending", payment: &models.Payment{Method: models.PaymentMethodQRCode, QRCodeURL: "u", Status: models.PaymentStatusPending}, want: true},
		{name: "qr without url", payment: &models.Payment{Method: models.PaymentMethodQRCode, Status: models.PaymentStatusPending}, want: false},
		{name: "card", payment: &models.Payment{Method: models.PaymentMethodCard, QRCodeURL: "u", Status: models.PaymentStatusPending}, want: false},
		{name: "qr settled", payment: &models.Payment{Method: models.PaymentMethodQRCode, QRCodeURL: "u", Status: models.PaymentStatusSuccess}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShowQR(tc.payment))
		})
	}
}
