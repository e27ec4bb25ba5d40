package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/sefazor/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRejectsDuplicatesAndBadBodies(t *testing.T) {
	s := newSandbox(t)
	s.signup("alice")

	status, env := s.call(http.MethodPost, "/v1/api/users", "", models.RegisterRequest{
		FullName: "Again", Username: "alice", Password: "secret123", Email: "other@example.com",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, env.Success)
	assert.Equal(t, "Username or email already in use", env.Message)

	status, env = s.call(http.MethodPost, "/v1/api/users", "", models.RegisterRequest{Username: "bo"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "Invalid or missing fields")

	status, _ = s.call(http.MethodPost, "/v1/api/users/login", "", models.LoginRequest{Username: "alice", Password: "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCurrentNeedsToken(t *testing.T) {
	s := newSandbox(t)
	status, _ := s.call(http.MethodGet, "/v1/api/users/current", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.call(http.MethodGet, "/v1/api/users/current", "not-a-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestFreePackageIsAccessible(t *testing.T) {
	s := newSandbox(t)
	token, userID := s.signup("alice")
	starter := s.packageNamed("Starter")

	var access models.AccessResult
	status, _ := s.call(http.MethodPost, "/v1/api/packages/"+starter.ID+"/access", token,
		models.AccessRequest{UserID: userID, PackageID: starter.ID}, &access)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, access.HasAccess)
}

func TestBodyUserMustMatchSession(t *testing.T) {
	s := newSandbox(t)
	token, _ := s.signup("alice")
	creator := s.packageNamed("Creator")

	status, _ := s.call(http.MethodPost, "/v1/api/purchases/check", token,
		models.PurchaseRequest{UserID: "someone-else", PackageID: creator.ID}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestPremiumPurchaseFlow(t *testing.T) {
	s := newSandbox(t)
	token, userID := s.signup("alice")
	premium := s.packageNamed("Premium")
	require.True(t, premium.IsPremium)

	var access models.AccessResult
	s.call(http.MethodPost, "/v1/api/packages/"+premium.ID+"/access", token,
		models.AccessRequest{UserID: userID, PackageID: premium.ID}, &access)
	assert.False(t, access.HasAccess)

	status, env := s.call(http.MethodPost, "/v1/api/purchases/check", token,
		models.PurchaseRequest{UserID: userID, PackageID: premium.ID}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(env.Data))

	// Premium packages only go through the upgrade endpoint.
	status, _ = s.call(http.MethodPost, "/v1/api/purchases", token,
		models.PurchaseRequest{UserID: userID, PackageID: premium.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var purchase models.Purchase
	status, _ = s.call(http.MethodPost, "/v1/api/purchases/upgrade-premium", token,
		models.UpgradePremiumRequest{PackageID: premium.ID}, &purchase)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.PurchaseStatusPending, purchase.Status)
	assert.Equal(t, premium.Price, purchase.Price)

	var existing models.Purchase
	s.call(http.MethodPost, "/v1/api/purchases/check", token,
		models.PurchaseRequest{UserID: userID, PackageID: premium.ID}, &existing)
	assert.Equal(t, purchase.ID, existing.ID)

	status, _ = s.call(http.MethodPost, "/v1/api/purchases/complete", token,
		models.CompletePurchaseRequest{PurchaseID: purchase.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "completion needs a successful payment")

	var p models.Payment
	status, _ = s.call(http.MethodPost, "/v1/api/payments", token, models.CreatePaymentRequest{
		UserID: userID, PurchaseID: purchase.ID, Amount: purchase.Price, Method: models.PaymentMethodQRCode,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Equal(t, "http://sandbox.test/v1/api/payments/"+p.ID+"/qr.png", p.QRCodeURL)
	assert.NotEmpty(t, p.ReferenceCode)

	status, raw := s.send(http.MethodGet, "/v1/api/payments/"+p.ID+"/qr.png", "", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []byte("\x89PNG"), raw[:4])

	status, _ = s.call(http.MethodPost, "/v1/api/payments/"+p.ID+"/settle", token,
		models.SettlePaymentRequest{Status: models.PaymentStatusSuccess}, nil)
	require.Equal(t, http.StatusOK, status)

	var checked models.Payment
	s.call(http.MethodPost, "/v1/api/payments/check", token,
		models.CheckPaymentRequest{UserID: userID, PaymentID: p.ID}, &checked)
	assert.Equal(t, models.PaymentStatusSuccess, checked.Status)

	var done models.CompletePurchaseResult
	status, _ = s.call(http.MethodPost, "/v1/api/purchases/complete", token,
		models.CompletePurchaseRequest{PurchaseID: purchase.ID}, &done)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.PurchaseStatusCompleted, done.Status)
	assert.Equal(t, models.RolePremium, done.UpdatedRole)

	var me models.User
	s.call(http.MethodGet, "/v1/api/users/current", token, nil, &me)
	assert.Equal(t, models.RolePremium, me.Role)

	s.call(http.MethodPost, "/v1/api/packages/"+premium.ID+"/access", token,
		models.AccessRequest{UserID: userID, PackageID: premium.ID}, &access)
	assert.True(t, access.HasAccess)

	var history models.Page[models.Purchase]
	s.call(http.MethodPost, "/v1/api/purchases/search", token, models.SearchRequest[models.PurchaseSearchCondition]{
		SearchCondition: models.PurchaseSearchCondition{Status: string(models.PurchaseStatusCompleted)},
		PageInfo:        models.PageRequest{PageNum: 1, PageSize: 10},
	}, &history)
	require.Len(t, history.PageData, 1)
	assert.Equal(t, purchase.ID, history.PageData[0].ID)
	assert.EqualValues(t, 1, history.PageInfo.TotalItems)
}

func TestSettleTwiceConflicts(t *testing.T) {
	s := newSandbox(t)
	token, userID := s.signup("alice")
	creator := s.packageNamed("Creator")

	var purchase models.Purchase
	s.call(http.MethodPost, "/v1/api/purchases", token, models.PurchaseRequest{UserID: userID, PackageID: creator.ID}, &purchase)
	var p models.Payment
	s.call(http.MethodPost, "/v1/api/payments", token, models.CreatePaymentRequest{
		UserID: userID, PurchaseID: purchase.ID, Amount: purchase.Price, Method: models.PaymentMethodQRCode,
	}, &p)

	status, _ := s.call(http.MethodPost, "/v1/api/payments/"+p.ID+"/settle", token, models.SettlePaymentRequest{Status: models.PaymentStatusFailed}, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = s.call(http.MethodPost, "/v1/api/payments/"+p.ID+"/settle", token, models.SettlePaymentRequest{Status: models.PaymentStatusSuccess}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestSettleRejectsAnotherUsersPayment(t *testing.T) {
	s := newSandbox(t)
	aliceToken, aliceID := s.signup("alice")
	malloryToken, _ := s.signup("mallory")
	creator := s.packageNamed("Creator")

	var purchase models.Purchase
	s.call(http.MethodPost, "/v1/api/purchases", aliceToken, models.PurchaseRequest{UserID: aliceID, PackageID: creator.ID}, &purchase)
	var p models.Payment
	s.call(http.MethodPost, "/v1/api/payments", aliceToken, models.CreatePaymentRequest{
		UserID: aliceID, PurchaseID: purchase.ID, Amount: purchase.Price, Method: models.PaymentMethodQRCode,
	}, &p)

	status, env := s.call(http.MethodPost, "/v1/api/payments/"+p.ID+"/settle", malloryToken, models.SettlePaymentRequest{Status: models.PaymentStatusFailed}, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Payment belongs to another user", env.Message)

	var checked models.Payment
	status, _ = s.call(http.MethodPost, "/v1/api/payments/check", aliceToken, models.CheckPaymentRequest{UserID: aliceID, PaymentID: p.ID}, &checked)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.PaymentStatusPending, checked.Status)
}

func TestPaymentAmountMustMatchPurchase(t *testing.T) {
	s := newSandbox(t)
	token, userID := s.signup("alice")
	creator := s.packageNamed("Creator")

	var purchase models.Purchase
	s.call(http.MethodPost, "/v1/api/purchases", token, models.PurchaseRequest{UserID: userID, PackageID: creator.ID}, &purchase)

	status, env := s.call(http.MethodPost, "/v1/api/payments", token, models.CreatePaymentRequest{
		UserID: userID, PurchaseID: purchase.ID, Amount: 1, Method: models.PaymentMethodQRCode,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Amount does not match the purchase price", env.Message)
}

func signStripe(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestStripeWebhookSettlesCardPayment(t *testing.T) {
	s := newSandbox(t)
	token, userID := s.signup("alice")
	creator := s.packageNamed("Creator")

	var purchase models.Purchase
	s.call(http.MethodPost, "/v1/api/purchases", token, models.PurchaseRequest{UserID: userID, PackageID: creator.ID}, &purchase)
	var p models.Payment
	status, _ := s.call(http.MethodPost, "/v1/api/payments", token, models.CreatePaymentRequest{
		UserID: userID, PurchaseID: purchase.ID, Amount: purchase.Price, Method: models.PaymentMethodCard,
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "https://checkout.test/"+p.ID, p.CheckoutURL)
	require.Len(t, s.cards.requests, 1)
	assert.Equal(t, "alice@example.com", s.cards.requests[0].CustomerEmail)

	payload, err := json.Marshal(map[string]interface{}{
		"id":     "evt_1",
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{"id": "cs_" + p.ID, "object": "checkout.session"},
		},
	})
	require.NoError(t, err)

	status = s.sendRaw(http.MethodPost, "/v1/api/payments/webhook", payload, map[string]string{
		"Stripe-Signature": signStripe(payload, "wrong"),
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status = s.sendRaw(http.MethodPost, "/v1/api/payments/webhook", payload, map[string]string{
		"Stripe-Signature": signStripe(payload, testWebhookSecret),
		"Content-Type":     "application/json",
	})
	require.Equal(t, http.StatusOK, status)

	var checked models.Payment
	s.call(http.MethodPost, "/v1/api/payments/check", token, models.CheckPaymentRequest{UserID: userID, PaymentID: p.ID}, &checked)
	assert.Equal(t, models.PaymentStatusSuccess, checked.Status)
}

func TestPosCartOrderAndPayment(t *testing.T) {
	s := newSandbox(t)
	token, _ := s.signup("cashier")

	var foods models.Page[models.Food]
	status, _ := s.call(http.MethodPost, "/v1/api/foods/search", token, models.SearchRequest[models.FoodSearchCondition]{
		SearchCondition: models.FoodSearchCondition{Keyword: "phở"},
	}, &foods)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, foods.PageData, 1)
	pho := foods.PageData[0]

	status, env := s.call(http.MethodGet, "/v1/api/cart", token, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", string(env.Data))

	var cart models.Cart
	s.call(http.MethodPost, "/v1/api/cart", token, models.CartItemRequest{FoodID: pho.ID, Quantity: 1}, &cart)
	s.call(http.MethodPost, "/v1/api/cart", token, models.CartItemRequest{FoodID: pho.ID, Quantity: 2}, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, pho.Price*3, cart.TotalPrice)

	s.call(http.MethodPut, "/v1/api/cart", token, models.CartItemRequest{FoodID: pho.ID, Quantity: 2}, &cart)
	assert.Equal(t, pho.Price*2, cart.TotalPrice)

	var byID models.Cart
	status, _ = s.call(http.MethodGet, "/v1/api/cart/"+cart.ID, token, nil, &byID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, cart.ID, byID.ID)

	var order models.Order
	status, _ = s.call(http.MethodPost, "/v1/api/orders", token, models.CreateOrderRequest{CartID: cart.ID}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, pho.Price*2, order.TotalPrice)
	require.Len(t, order.Items, 1)

	var emptied models.Cart
	s.call(http.MethodGet, "/v1/api/cart", token, nil, &emptied)
	assert.Empty(t, emptied.Items)
	assert.Zero(t, emptied.TotalPrice)

	var pp models.PosPayment
	status, _ = s.call(http.MethodPost, "/v1/api/pos/payments", token, models.ProcessPaymentRequest{
		OrderID: order.ID, Amount: order.TotalPrice, Method: models.PosMethodCash,
	}, &pp)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.PosPaymentPending, pp.Status)

	status, _ = s.call(http.MethodPut, "/v1/api/pos/payments/"+pp.ID, token, models.UpdatePosPaymentRequest{
		Status: models.PosPaymentPaid, Method: models.PosMethodCash,
	}, &pp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.PosPaymentPaid, pp.Status)

	var paid models.Order
	s.call(http.MethodGet, "/v1/api/orders/"+order.ID, token, nil, &paid)
	assert.Equal(t, models.OrderStatusPaid, paid.Status)

	var orders []models.Order
	s.call(http.MethodGet, "/v1/api/orders", token, nil, &orders)
	assert.Len(t, orders, 1)

	var payments []models.PosPayment
	s.call(http.MethodGet, "/v1/api/pos/payments", token, nil, &payments)
	require.Len(t, payments, 1)
	assert.Equal(t, pp.ID, payments[0].ID)

	status, _ = s.call(http.MethodPost, "/v1/api/orders", token, models.CreateOrderRequest{CartID: cart.ID}, nil)
	assert.Equal(t, http.StatusBadRequest, status, "empty cart")
}

func TestOrdersAreScopedToOwner(t *testing.T) {
	s := newSandbox(t)
	alice, _ := s.signup("alice")
	bob, _ := s.signup("bobby")

	var foods models.Page[models.Food]
	s.call(http.MethodPost, "/v1/api/foods/search", alice, models.SearchRequest[models.FoodSearchCondition]{}, &foods)
	require.NotEmpty(t, foods.PageData)

	var cart models.Cart
	s.call(http.MethodPost, "/v1/api/cart", alice, models.CartItemRequest{FoodID: foods.PageData[0].ID, Quantity: 1}, &cart)
	var order models.Order
	s.call(http.MethodPost, "/v1/api/orders", alice, models.CreateOrderRequest{CartID: cart.ID}, &order)

	status, _ := s.call(http.MethodGet, "/v1/api/orders/"+order.ID, bob, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestBankFeed(t *testing.T) {
	s := newSandbox(t)

	status, _ := s.send(http.MethodGet, "/v2/transactions", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	key := map[string]string{"Authorization": "apikey " + testBankKey}
	status, _ = s.send(http.MethodPost, "/v2/transactions", "", models.BankTransaction{
		BankSubAccID: "0123", Amount: 110000, Description: "Order abc",
	}, key)
	require.Equal(t, http.StatusCreated, status)

	status, raw := s.send(http.MethodGet, "/v2/transactions", "", nil, key)
	require.Equal(t, http.StatusOK, status)

	var feed struct {
		Error int `json:"error"`
		Data  struct {
			TotalRecords int                      `json:"totalRecords"`
			Records      []models.BankTransaction `json:"records"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &feed))
	assert.Equal(t, 0, feed.Error)
	assert.Equal(t, 1, feed.Data.TotalRecords)
	require.Len(t, feed.Data.Records, 1)
	assert.Equal(t, "Order abc", feed.Data.Records[0].Description)
	assert.NotEmpty(t, feed.Data.Records[0].When)
}
