package api

import (
	"context"

	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// checkPerformTransaction answers whether the order is ready to be paid.
// Read-only: nothing is mutated, not even expired transactions.
func (h *Handler) checkPerformTransaction(ctx context.Context, req *protocol.Request) (interface{}, error) {
	if _, err := h.orders.Validate(ctx, req.Params); err != nil {
		return nil, err
	}

	orderID, _ := req.Params.AccountOrderID()
	found, err := h.transactions.FindActiveByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return nil, protocol.NewError(protocol.ErrCouldNotPerform,
			"There is other active/completed transaction for this order.")
	}

	return gin.H{"allow": true}, nil
}
