package email

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

type EmailService struct {
	from      string
	fromName  string
	templates *template.Template
	logger    *zap.Logger

	send func(*resend.SendEmailRequest) (string, error)
}

func NewEmailService(apiKey, from, fromName string, logger *zap.Logger) (*EmailService, error) {
	if apiKey == "" || from == "" {
		return nil, errors.New("email sender is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	client := resend.NewClient(apiKey)
	return &EmailService{
		from:      from,
		fromName:  fromName,
		templates: tmpl,
		logger:    logger,
		send: func(params *resend.SendEmailRequest) (string, error) {
			resp, err := client.Emails.Send(params)
			if err != nil {
				return "", err
			}
			return resp.Id, nil
		},
	}, nil
}

type ReceiptLine struct {
	Name     string
	Quantity int
	Total    string
}

type ReceiptEmail struct {
	OrderID    string
	PaymentID  string
	Method     string
	Amount     string
	Paid       string
	Change     string
	Items      []ReceiptLine
	ReceiptURL string
}

func (s *EmailService) SendReceiptEmail(to string, data ReceiptEmail) error {
	html, err := s.render("receipt.html", map[string]interface{}{
		"Receipt": data,
		"Year":    time.Now().Year(),
	})
	if err != nil {
		return err
	}
	return s.deliver(to, "Your receipt for order "+data.OrderID, html)
}

func (s *EmailService) SendWelcomeEmail(to, fullName string) error {
	html, err := s.render("welcome.html", map[string]interface{}{
		"FullName": fullName,
		"Email":    to,
		"Year":     time.Now().Year(),
	})
	if err != nil {
		return err
	}
	return s.deliver(to, "Welcome to Storefront!", html)
}

func (s *EmailService) deliver(to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	id, err := s.send(params)
	if err != nil {
		s.logger.Error("email send failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("id", id))
	return nil
}

func (s *EmailService) render(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		s.logger.Error("email template failed", zap.String("template", name), zap.Error(err))
		return "", err
	}
	return body.String(), nil
}
