package api

import (
	"context"
	"fmt"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// performTransaction confirms the payment: the order becomes PAY_ACCEPTED
// and the transaction COMPLETED. Replaying against a COMPLETED transaction
// returns the recorded perform time without re-mutating.
func (h *Handler) performTransaction(ctx context.Context, req *protocol.Request) (interface{}, error) {
	found, err := h.transactions.FindByPaycomID(ctx, req.Params.ID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, protocol.NewError(protocol.ErrTransactionNotFound, "Transaction not found.")
	}

	unlock, err := h.locks.Lock(ctx, orderLockKey(found.OrderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Re-read under the lock, the state may have moved
	found, err = h.transactions.FindByPaycomID(ctx, req.Params.ID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, protocol.NewError(protocol.ErrTransactionNotFound, "Transaction not found.")
	}

	switch found.State {
	case models.TransactionStateCreated:
		if found.IsExpired() {
			if err := h.transactions.Cancel(ctx, found, models.ReasonCancelledByTimeout); err != nil {
				return nil, err
			}
			return nil, protocol.NewError(protocol.ErrCouldNotPerform, "Transaction is expired.")
		}

		order, err := h.orders.Find(ctx, found.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("transaction %s references missing order %d", found.PaycomTransactionID, found.OrderID)
		}

		if err := h.orders.ChangeState(ctx, order, models.OrderStatePayAccepted); err != nil {
			return nil, err
		}
		if err := h.transactions.Perform(ctx, found); err != nil {
			return nil, err
		}

		go h.webhooks.Notify("transaction.performed", found)
		go h.mail.NotifyTransaction("payment performed", found)

		return gin.H{
			"transaction":  found.ID,
			"perform_time": found.PerformTime,
			"state":        found.State,
		}, nil

	case models.TransactionStateCompleted:
		// Idempotent replay
		return gin.H{
			"transaction":  found.ID,
			"perform_time": found.PerformTime,
			"state":        found.State,
		}, nil

	default:
		return nil, protocol.NewError(protocol.ErrCouldNotPerform, "Could not perform this operation.")
	}
}
