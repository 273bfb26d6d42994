package api

import (
	"context"

	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// getStatement reports transactions whose processor timestamp falls within
// [from, to], boundaries included, ascending.
func (h *Handler) getStatement(ctx context.Context, req *protocol.Request) (interface{}, error) {
	p := req.Params

	if p.From <= 0 {
		return nil, protocol.NewErrorData(protocol.ErrInvalidAccount, "Incorrect period.", "from")
	}
	if p.To <= 0 {
		return nil, protocol.NewErrorData(protocol.ErrInvalidAccount, "Incorrect period.", "to")
	}
	if p.From >= p.To {
		return nil, protocol.NewErrorData(protocol.ErrInvalidAccount, "Incorrect period. (from >= to)", "from")
	}

	rows, err := h.transactions.Report(ctx, p.From, p.To)
	if err != nil {
		return nil, err
	}

	return gin.H{"transactions": rows}, nil
}
