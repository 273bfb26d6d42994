package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"gorm.io/gorm"
)

// TransactionService owns the transaction lifecycle. It is the sole writer
// of transaction state: create, perform, cancel. Transactions are never
// deleted; cancellation is a terminal state transition.
type TransactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new transaction service
func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{db: db}
}

// FindByPaycomID looks a transaction up by the processor-assigned id.
// Returns nil without error when no such transaction exists.
func (s *TransactionService) FindByPaycomID(ctx context.Context, paycomID string) (*models.Transaction, error) {
	if paycomID == "" {
		return nil, protocol.NewError(protocol.ErrInternalSystem, "Parameter to find a transaction is not specified.")
	}

	var transaction models.Transaction
	result := s.db.WithContext(ctx).
		Where("paycom_transaction_id = ?", paycomID).
		First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transaction: %w", result.Error)
	}
	return &transaction, nil
}

// FindActiveByOrder finds the CREATED or COMPLETED transaction holding the
// given order, if any. Used to enforce one active transaction per order.
func (s *TransactionService) FindActiveByOrder(ctx context.Context, orderID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	result := s.db.WithContext(ctx).
		Where("order_id = ? AND state IN ?", orderID, []models.TransactionState{
			models.TransactionStateCreated,
			models.TransactionStateCompleted,
		}).
		First(&transaction)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active transaction: %w", result.Error)
	}
	return &transaction, nil
}

// Create persists a new CREATED transaction. The unique index on
// paycom_transaction_id makes creation idempotent: if a concurrent request
// already inserted the same processor id, the existing row is returned.
func (s *TransactionService) Create(ctx context.Context, paycomID string, paycomTime, amount int64, orderID uint) (*models.Transaction, error) {
	transaction := &models.Transaction{
		PaycomTransactionID: paycomID,
		PaycomTime:          paycomTime,
		PaycomTimeDatetime:  models.FromMillis(paycomTime),
		CreateTime:          models.NowMillis(),
		Amount:              amount,
		State:               models.TransactionStateCreated,
		OrderID:             orderID,
	}

	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race against a redelivery of the same id
			return s.FindByPaycomID(ctx, paycomID)
		}
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return transaction, nil
}

// Perform marks a CREATED transaction as COMPLETED and records the perform
// time. The caller has already checked state and expiry under the order
// lock.
func (s *TransactionService) Perform(ctx context.Context, transaction *models.Transaction) error {
	transaction.PerformTime = models.NowMillis()
	transaction.State = models.TransactionStateCompleted

	if err := s.db.WithContext(ctx).Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to perform transaction: %w", err)
	}
	return nil
}

// Cancel moves the transaction into a terminal cancelled state: CANCELLED
// from CREATED, CANCELLED_AFTER_COMPLETE from COMPLETED. Re-entry on an
// already terminal transaction is short-circuited by the caller.
func (s *TransactionService) Cancel(ctx context.Context, transaction *models.Transaction, reason int) error {
	transaction.CancelTime = models.NowMillis()
	if transaction.State == models.TransactionStateCompleted {
		transaction.State = models.TransactionStateCancelledAfterComplete
	} else {
		transaction.State = models.TransactionStateCancelled
	}
	transaction.Reason = &reason

	if err := s.db.WithContext(ctx).Save(transaction).Error; err != nil {
		return fmt.Errorf("failed to cancel transaction: %w", err)
	}
	return nil
}

// StatementAccount identifies the order a statement row belongs to.
type StatementAccount struct {
	OrderID uint `json:"order_id"`
}

// StatementRow is one transaction in the GetStatement reporting shape.
// id/time are the processor's id and timestamp; transaction is ours.
type StatementRow struct {
	ID          string                  `json:"id"`
	Time        int64                   `json:"time"`
	Amount      int64                   `json:"amount"`
	Account     StatementAccount        `json:"account"`
	CreateTime  int64                   `json:"create_time"`
	PerformTime int64                   `json:"perform_time"`
	CancelTime  int64                   `json:"cancel_time"`
	Transaction uint                    `json:"transaction"`
	State       models.TransactionState `json:"state"`
	Reason      *int                    `json:"reason"`
	Receivers   json.RawMessage         `json:"receivers"`
}

// Report returns transactions whose processor timestamp falls within
// [from, to], both epoch milliseconds, boundaries included, ascending.
func (s *TransactionService) Report(ctx context.Context, from, to int64) ([]StatementRow, error) {
	var transactions []models.Transaction
	result := s.db.WithContext(ctx).
		Where("paycom_time_datetime BETWEEN ? AND ?", models.FromMillis(from), models.FromMillis(to)).
		Order("paycom_time_datetime ASC").
		Find(&transactions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query statement: %w", result.Error)
	}

	rows := make([]StatementRow, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		rows = append(rows, StatementRow{
			ID:          t.PaycomTransactionID,
			Time:        t.PaycomTime,
			Amount:      t.Amount,
			Account:     StatementAccount{OrderID: t.OrderID},
			CreateTime:  t.CreateTime,
			PerformTime: t.PerformTime,
			CancelTime:  t.CancelTime,
			Transaction: t.ID,
			State:       t.State,
			Reason:      t.Reason,
			Receivers:   t.ReceiversJSON(),
		})
	}
	return rows, nil
}
