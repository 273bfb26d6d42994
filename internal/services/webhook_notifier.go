package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"payme-merchant/internal/models"
	"payme-merchant/pkg/logging"

	"github.com/google/uuid"
)

// WebhookNotifier tells the merchant's shop backend about transaction
// state changes (order paid, order cancelled) so it can fulfil or release
// the order. Deliveries are fire-and-forget from the request path.
type WebhookNotifier struct {
	callbackURL string
	secret      string
	httpClient  *http.Client
}

// NewWebhookNotifier creates a new webhook notifier. An empty callback URL
// disables delivery.
func NewWebhookNotifier(callbackURL, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		callbackURL: callbackURL,
		secret:      secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WebhookPayload is the payload sent to the merchant backend
type WebhookPayload struct {
	EventID             string `json:"event_id"`              // unique delivery id
	Event               string `json:"event"`                 // transaction.performed or transaction.cancelled
	PaycomTransactionID string `json:"paycom_transaction_id"` // processor-assigned id
	Transaction         uint   `json:"transaction"`           // our transaction id
	OrderID             uint   `json:"order_id"`
	Amount              int64  `json:"amount"` // tiyins
	State               int    `json:"state"`
	Reason              *int   `json:"reason,omitempty"`
	Timestamp           string `json:"timestamp"` // ISO 8601
}

// Notify sends a state-change notification for the given transaction.
// Call from a goroutine; delivery retries block.
func (wn *WebhookNotifier) Notify(event string, transaction *models.Transaction) {
	if wn.callbackURL == "" {
		// No webhook configured, skip
		return
	}

	payload := WebhookPayload{
		EventID:             uuid.NewString(),
		Event:               event,
		PaycomTransactionID: transaction.PaycomTransactionID,
		Transaction:         transaction.ID,
		OrderID:             transaction.OrderID,
		Amount:              transaction.Amount,
		State:               int(transaction.State),
		Reason:              transaction.Reason,
		Timestamp:           time.Now().Format(time.RFC3339),
	}

	wn.sendWithRetry(payload)
}

// sendWithRetry sends webhook with retry mechanism
// Retry schedule: 1s, 5s, 30s (3 attempts total)
func (wn *WebhookNotifier) sendWithRetry(payload WebhookPayload) {
	retryDelays := []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}
	maxRetries := len(retryDelays)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := wn.sendWebhook(payload)
		if err == nil {
			logging.Infof("Webhook sent - event: %s, transaction: %s, attempt: %d",
				payload.Event, payload.PaycomTransactionID, attempt+1)
			return
		}

		logging.Errorf("Webhook failed - event: %s, transaction: %s, attempt: %d, error: %v",
			payload.Event, payload.PaycomTransactionID, attempt+1, err)

		if attempt < maxRetries-1 {
			time.Sleep(retryDelays[attempt])
		}
	}

	logging.Errorf("Webhook dropped after %d attempts - event: %s, transaction: %s",
		maxRetries, payload.Event, payload.PaycomTransactionID)
}

// sendWebhook sends a single webhook request
func (wn *WebhookNotifier) sendWebhook(payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", wn.callbackURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "PaymeMerchant-Webhook/1.0")

	if wn.secret != "" {
		req.Header.Set("X-Merchant-Signature", wn.generateSignature(jsonData))
	}

	resp, err := wn.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// generateSignature generates HMAC-SHA256 signature for webhook payload
func (wn *WebhookNotifier) generateSignature(payload []byte) string {
	h := hmac.New(sha256.New, []byte(wn.secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
