package api

import (
	"context"
	"fmt"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// cancelTransaction cancels the payment. A CREATED transaction cancels
// unconditionally; a COMPLETED one only when the order still allows it.
// Replaying against an already cancelled transaction returns the recorded
// cancel time.
func (h *Handler) cancelTransaction(ctx context.Context, req *protocol.Request) (interface{}, error) {
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

	found, err = h.transactions.FindByPaycomID(ctx, req.Params.ID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, protocol.NewError(protocol.ErrTransactionNotFound, "Transaction not found.")
	}

	reason := models.ReasonUnknown
	if req.Params.Reason != nil {
		reason = *req.Params.Reason
	}

	switch found.State {
	case models.TransactionStateCancelled, models.TransactionStateCancelledAfterComplete:
		// Idempotent replay
		return gin.H{
			"transaction": found.ID,
			"cancel_time": found.CancelTime,
			"state":       found.State,
		}, nil

	case models.TransactionStateCreated:
		if err := h.transactions.Cancel(ctx, found, reason); err != nil {
			return nil, err
		}

		order, err := h.orders.Find(ctx, found.OrderID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			if err := h.orders.ChangeState(ctx, order, models.OrderStateCancelled); err != nil {
				return nil, err
			}
		}

		go h.webhooks.Notify("transaction.cancelled", found)
		go h.mail.NotifyTransaction("payment cancelled", found)

		return gin.H{
			"transaction": found.ID,
			"cancel_time": found.CancelTime,
			"state":       found.State,
		}, nil

	case models.TransactionStateCompleted:
		order, err := h.orders.Find(ctx, found.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("transaction %s references missing order %d", found.PaycomTransactionID, found.OrderID)
		}

		if !h.orders.AllowCancel(order) {
			return nil, protocol.NewError(protocol.ErrCouldNotCancel,
				"Could not cancel transaction. Order is delivered/Service is completed.")
		}

		if err := h.transactions.Cancel(ctx, found, reason); err != nil {
			return nil, err
		}
		if err := h.orders.ChangeState(ctx, order, models.OrderStateCancelled); err != nil {
			return nil, err
		}

		go h.webhooks.Notify("transaction.cancelled", found)
		go h.mail.NotifyTransaction("payment cancelled", found)

		return gin.H{
			"transaction": found.ID,
			"cancel_time": found.CancelTime,
			"state":       found.State,
		}, nil

	default:
		return nil, protocol.NewError(protocol.ErrCouldNotCancel, "Could not cancel transaction.")
	}
}
