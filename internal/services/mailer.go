package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/example/dentamart/internal/models"
)

// Mailer handles outbound email: verification codes, password resets and
// order confirmations. Delivery is best-effort; callers fire it from a
// goroutine and a failed send never aborts the operation that triggered it.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewMailer creates a Mailer. With an empty host every send becomes a logged
// no-op, which keeps local development working without an SMTP server.
func NewMailer(host, port, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *Mailer) Send(to, subject, body string) error {
	if m.host == "" {
		log.Printf("[Mailer] SMTP not configured, skipping mail to %s (%s)", to, subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		log.Printf("[Mailer] Failed to send mail to %s: %v", to, err)
		return err
	}

	return nil
}

// SendVerificationCode mails the one-time signup code.
func (m *Mailer) SendVerificationCode(to, code string) error {
	body := fmt.Sprintf(`Welcome to Dentamart!

Your verification code is: %s

The code expires in 10 minutes. If you did not create an account, ignore this message.`, code)

	return m.Send(to, "Dentamart: verify your email", body)
}

// SendPasswordResetCode mails the forgot-password code.
func (m *Mailer) SendPasswordResetCode(to, code string) error {
	body := fmt.Sprintf(`A password reset was requested for your Dentamart account.

Your reset code is: %s

The code expires in 10 minutes. If you did not request a reset, ignore this message.`, code)

	return m.Send(to, "Dentamart: password reset code", body)
}

// SendOrderConfirmation mails the customer a summary of a freshly placed order.
func (m *Mailer) SendOrderConfirmation(order *models.Order) error {
	if order.CustomerEmail == "" {
		return nil
	}

	var items strings.Builder
	for i, item := range order.Items {
		items.WriteString(fmt.Sprintf("%d. %s x%d - %s\n",
			i+1, item.ProductName, item.Quantity, FormatPrice(item.LineTotal, order.Currency)))
	}

	body := fmt.Sprintf(`Thank you for your order!

Order number: %s
Status: %s

Items:
%s
Subtotal: %s
Delivery:  %s
Total:     %s

We will email you when the order status changes.`,
		order.OrderNumber,
		order.Status,
		items.String(),
		FormatPrice(order.Subtotal, order.Currency),
		FormatPrice(order.DeliveryFee, order.Currency),
		FormatPrice(order.TotalAmount, order.Currency),
	)

	return m.Send(order.CustomerEmail, "Dentamart: order "+order.OrderNumber, body)
}

// FormatPrice formats an amount with thousand separators and a currency code.
func FormatPrice(amount float64, currency string) string {
	if currency == "" {
		currency = "UZS"
	}

	intAmount := int64(amount)
	str := fmt.Sprintf("%d", intAmount)

	var result strings.Builder
	length := len(str)
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + " " + currency
}
