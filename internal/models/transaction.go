package models

import (
	"encoding/json"
	"time"
)

// TransactionState is the lifecycle state of a Payme transaction.
// The numeric values are fixed by the protocol.
type TransactionState int

const (
	TransactionStateCreated                TransactionState = 1
	TransactionStateCompleted              TransactionState = 2
	TransactionStateCancelled              TransactionState = -1
	TransactionStateCancelledAfterComplete TransactionState = -2
)

// Cancellation reason codes fixed by the protocol.
const (
	ReasonReceiversNotFound         = 1
	ReasonProcessingExecutionFailed = 2
	ReasonExecutionFailed           = 3
	ReasonCancelledByTimeout        = 4
	ReasonFundReturned              = 5
	ReasonUnknown                   = 10
)

// TransactionTimeout is the transaction expiration time in milliseconds.
// 43 200 000 ms = 12 hours.
const TransactionTimeout = 43200000

// Transaction 交易表
// Stores one row per Payme transaction. PaycomTransactionID is the
// idempotency key: the processor may redeliver CreateTransaction with the
// same id and must get the same row back. PaycomTime keeps the processor
// timestamp verbatim (epoch ms); PaycomTimeDatetime is the derived column
// used for statement range queries. CreateTime/PerformTime/CancelTime are
// epoch milliseconds, zero until set.
type Transaction struct {
	BaseModel

	PaycomTransactionID string    `json:"paycom_transaction_id" gorm:"not null;size:25;uniqueIndex"`
	PaycomTime          int64     `json:"paycom_time" gorm:"not null"`
	PaycomTimeDatetime  time.Time `json:"paycom_time_datetime" gorm:"not null;index"`

	CreateTime  int64 `json:"create_time" gorm:"not null"`
	PerformTime int64 `json:"perform_time"`
	CancelTime  int64 `json:"cancel_time"`

	Amount int64            `json:"amount" gorm:"not null"`
	State  TransactionState `json:"state" gorm:"not null;index"`
	Reason *int             `json:"reason"`

	// JSON array of receivers, passed through unmodified
	Receivers *string `json:"receivers" gorm:"size:500"`

	OrderID uint `json:"order_id" gorm:"not null;index"`
}

// TableName 指定表名
func (Transaction) TableName() string {
	return "transactions"
}

// IsActive reports whether the transaction still holds its order
// (not yet in a terminal cancelled state).
func (t *Transaction) IsActive() bool {
	return t.State == TransactionStateCreated || t.State == TransactionStateCompleted
}

// IsExpired reports whether the transaction timed out. Only CREATED
// transactions expire; expiry is evaluated lazily on access, there is no
// background sweep.
func (t *Transaction) IsExpired() bool {
	if t.State != TransactionStateCreated {
		return false
	}
	age := NowMillis() - t.CreateTime
	if age < 0 {
		age = -age
	}
	return age > TransactionTimeout
}

// ReceiversJSON returns the stored receivers as raw JSON, or nil.
func (t *Transaction) ReceiversJSON() json.RawMessage {
	if t.Receivers == nil || *t.Receivers == "" {
		return nil
	}
	return json.RawMessage(*t.Receivers)
}
