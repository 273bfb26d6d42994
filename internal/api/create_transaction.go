package api

import (
	"context"
	"fmt"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// createTransaction creates a transaction for an order, or replays the
// existing one when the processor redelivers the same id. The whole
// check-then-act sequence runs under the order lock so two concurrent
// creates for one order cannot both pass the active-transaction check.
func (h *Handler) createTransaction(ctx context.Context, req *protocol.Request) (interface{}, error) {
	p := req.Params

	orderID, ok := p.AccountOrderID()
	if !ok {
		return nil, protocol.NewErrorData(
			protocol.ErrInvalidAccount,
			protocol.Localized("Неверный код заказа.", "Harid kodida xatolik.", "Incorrect order code."),
			"order_id",
		)
	}

	unlock, err := h.locks.Lock(ctx, orderLockKey(orderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := h.orders.Validate(ctx, p); err != nil {
		return nil, err
	}

	// One order admits only one in-flight processor transaction
	other, err := h.transactions.FindActiveByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if other != nil && other.PaycomTransactionID != p.ID {
		return nil, protocol.NewError(protocol.ErrInvalidAccount,
			"There is other active/completed transaction for this order.")
	}

	found, err := h.transactions.FindByPaycomID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if found != nil {
		if found.State != models.TransactionStateCreated {
			return nil, protocol.NewError(protocol.ErrCouldNotPerform,
				"Transaction found, but is not active.")
		}
		if found.IsExpired() {
			if err := h.transactions.Cancel(ctx, found, models.ReasonCancelledByTimeout); err != nil {
				return nil, err
			}
			return nil, protocol.NewError(protocol.ErrCouldNotPerform, "Transaction is expired.")
		}

		// Idempotent replay: same id, still active - return it unchanged
		return gin.H{
			"create_time": found.CreateTime,
			"transaction": found.ID,
			"state":       found.State,
			"receivers":   found.ReceiversJSON(),
		}, nil
	}

	// Reject processor times older than the timeout window
	if models.NowMillis()-p.Time > models.TransactionTimeout {
		return nil, protocol.NewErrorData(
			protocol.ErrInvalidAccount,
			protocol.Localized(
				fmt.Sprintf("С даты создания транзакции прошло %dмс", models.TransactionTimeout),
				fmt.Sprintf("Tranzaksiya yaratilgan sanadan %dms o`tgan", models.TransactionTimeout),
				fmt.Sprintf("Since create time of the transaction passed %dms", models.TransactionTimeout),
			),
			"time",
		)
	}

	amount, _ := p.AmountMinor()
	transaction, err := h.transactions.Create(ctx, p.ID, p.Time, amount, orderID)
	if err != nil {
		return nil, err
	}

	return gin.H{
		"create_time": transaction.CreateTime,
		"transaction": transaction.ID,
		"state":       transaction.State,
		"receivers":   nil,
	}, nil
}
