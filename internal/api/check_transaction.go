package api

import (
	"context"

	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// checkTransaction returns the stored state of a transaction. Pure lookup.
func (h *Handler) checkTransaction(ctx context.Context, req *protocol.Request) (interface{}, error) {
	found, err := h.transactions.FindByPaycomID(ctx, req.Params.ID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, protocol.NewError(protocol.ErrTransactionNotFound, "Transaction not found.")
	}

	return gin.H{
		"create_time":  found.CreateTime,
		"perform_time": found.PerformTime,
		"cancel_time":  found.CancelTime,
		"transaction":  found.ID,
		"state":        found.State,
		"reason":       found.Reason,
	}, nil
}
