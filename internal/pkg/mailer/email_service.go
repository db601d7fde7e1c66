package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// RefundUpdate is the customer-facing content of a refund status email.
type RefundUpdate struct {
	CustomerName string
	OrderNumber  string
	Status       string
	Amount       int64 // minor units
	Currency     string
	Message      string
}

type IEmailService interface {
	SendRefundUpdate(toEmail string, update RefundUpdate) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

var refundTemplate = template.Must(template.New("refund").Parse(`
	<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
		<h2>Refund update for order {{.OrderNumber}}</h2>
		<p>Hi {{.CustomerName}},</p>
		<p>Your refund of <strong>{{.Amount}}</strong> is now <strong>{{.Status}}</strong>.</p>
		{{if .Message}}<p>{{.Message}}</p>{{end}}
		<p>If you have questions, simply reply to this email.</p>
	</div>
`))

func (s *emailService) SendRefundUpdate(toEmail string, update RefundUpdate) error {
	body, err := RenderRefundUpdate(update)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Your refund for order %s is %s", update.OrderNumber, update.Status))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send refund update to %s: %w", toEmail, err)
	}
	return nil
}

// RenderRefundUpdate renders the HTML body of a refund update.
func RenderRefundUpdate(update RefundUpdate) (string, error) {
	var buf bytes.Buffer
	err := refundTemplate.Execute(&buf, map[string]string{
		"CustomerName": update.CustomerName,
		"OrderNumber":  update.OrderNumber,
		"Status":       update.Status,
		"Amount":       FormatAmount(update.Amount, update.Currency),
		"Message":      update.Message,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render refund email: %w", err)
	}
	return buf.String(), nil
}

// Currencies without a minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true, "KRW": true, "VND": true, "CLP": true, "ISK": true, "UGX": true,
}

// FormatAmount renders minor units as a decimal amount, e.g. 2390 USD -> "23.90 USD".
func FormatAmount(minor int64, currency string) string {
	if zeroDecimalCurrencies[currency] {
		return fmt.Sprintf("%d %s", minor, currency)
	}
	return decimal.New(minor, -2).StringFixed(2) + " " + currency
}
