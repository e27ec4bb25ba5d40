package qrcode

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const vietQRImageHost = "https://img.vietqr.io/image"

// QRService renders payment QR images for payloads under a common base URL.
type QRService struct {
	baseURL string // e.g. "https://pay.example.com/r/"
}

func NewQRService(baseURL string) *QRService {
	return &QRService{
		baseURL: baseURL,
	}
}

// GenerateQRCode returns a PNG for baseURL+code.
func (s *QRService) GenerateQRCode(code string, size int) ([]byte, error) {
	return Encode(s.baseURL+code, size)
}

func Encode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return png, nil
}

// Terminal renders content as block characters for a text console.
func Terminal(content string) (string, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return q.ToString(false), nil
}

// VietQR identifies the receiving bank account for a transfer QR.
type VietQR struct {
	BankID      string
	AccountNo   string
	Template    string
	AccountName string
}

// URL builds the image URL for a transfer of amount with info as the
// transfer description.
func (v VietQR) URL(amount float64, info string) string {
	template := v.Template
	if template == "" {
		template = "compact"
	}

	q := url.Values{}
	q.Set("amount", strconv.FormatInt(int64(amount+0.5), 10))
	q.Set("addInfo", info)
	if v.AccountName != "" {
		q.Set("accountName", v.AccountName)
	}

	// url.Values encodes spaces as '+', the image service expects %20.
	query := strings.ReplaceAll(q.Encode(), "+", "%20")
	return fmt.Sprintf("%s/%s-%s-%s.png?%s", vietQRImageHost, v.BankID, v.AccountNo, template, query)
}

// OrderReference is the transfer description that ties a bank transfer to an order.
func OrderReference(orderID string) string {
	return "Order " + orderID
}
