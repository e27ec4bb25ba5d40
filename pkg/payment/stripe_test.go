package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"
)

func TestCreateCheckoutSessionBuildsVNDLineItem(t *testing.T) {
	s := NewStripeService("sk_test_x", "http://ok", "http://cancel")
	var got *stripe.CheckoutSessionParams
	s.newSession = func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		got = p
		return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil
	}

	sess, err := s.CreateCheckoutSession(CheckoutRequest{
		CustomerEmail: "a@example.com",
		ProductName:   "Premium Studio",
		Amount:        299000,
		Metadata:      map[string]string{"payment_id": "p1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", sess.URL)

	require.Len(t, got.LineItems, 1)
	assert.Equal(t, int64(299000), *got.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "vnd", *got.LineItems[0].PriceData.Currency)
	assert.Equal(t, "http://ok", *got.SuccessURL)
	assert.Equal(t, "p1", got.Metadata["payment_id"])
}

func TestCreateCheckoutSessionNeedsKey(t *testing.T) {
	_, err := NewStripeService("", "", "").CreateCheckoutSession(CheckoutRequest{Amount: 1})
	assert.Error(t, err)
}

func TestParseWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","metadata":{"payment_id":"p1"}}}}`)
	secret := "whsec_test"
	ts := time.Now().Unix()

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	signature := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	event, err := ParseWebhook(payload, signature, secret)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "cs_1", event.SessionID)
	assert.Equal(t, "p1", event.Metadata["payment_id"])

	_, err = ParseWebhook(payload, "t=1,v1=bad", secret)
	assert.Error(t, err)
}
