package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"payme-merchant/internal/models"
	"payme-merchant/pkg/logging"
)

// MailNotifier emails the merchant's ops address about performed and
// cancelled payments via the Brevo API. Disabled when no API key or
// recipient is configured.
type MailNotifier struct {
	apiKey      string
	fromEmail   string
	opsEmail    string
	serviceName string
}

// NewMailNotifier creates a new mail notifier
func NewMailNotifier(apiKey, fromEmail, opsEmail, serviceName string) *MailNotifier {
	return &MailNotifier{
		apiKey:      apiKey,
		fromEmail:   fromEmail,
		opsEmail:    opsEmail,
		serviceName: serviceName,
	}
}

// EmailRequest represents Brevo email request structure
type EmailRequest struct {
	Sender      EmailSender `json:"sender"`
	To          []EmailTo   `json:"to"`
	Subject     string      `json:"subject"`
	TextContent string      `json:"textContent"`
}

type EmailSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type EmailTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotifyTransaction sends an ops email about a transaction state change.
// Call from a goroutine.
func (s *MailNotifier) NotifyTransaction(event string, transaction *models.Transaction) {
	if s.apiKey == "" || s.opsEmail == "" {
		// Mail notifications not configured, skip
		return
	}

	subject := fmt.Sprintf("[%s] %s - order %d", s.serviceName, event, transaction.OrderID)
	textContent := fmt.Sprintf(
		"Event: %s\nPaycom transaction: %s\nOrder: %d\nAmount: %d tiyin\nState: %d\n",
		event, transaction.PaycomTransactionID, transaction.OrderID, transaction.Amount, transaction.State,
	)

	emailReq := EmailRequest{
		Sender: EmailSender{
			Name:  s.serviceName,
			Email: s.fromEmail,
		},
		To: []EmailTo{
			{Email: s.opsEmail},
		},
		Subject:     subject,
		TextContent: textContent,
	}

	if err := s.sendEmail(emailReq); err != nil {
		logging.Errorf("Failed to send ops email for transaction %s: %v",
			transaction.PaycomTransactionID, err)
	}
}

// sendEmail sends email via Brevo API
func (s *MailNotifier) sendEmail(req EmailRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", "https://api.brevo.com/v3/smtp/email", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", s.apiKey)

	client := &http.Client{}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}

	return nil
}
