package api

import (
	"context"
	"fmt"
	"net/http"

	"payme-merchant/internal/auth"
	"payme-merchant/internal/middleware"
	"payme-merchant/internal/protocol"
	"payme-merchant/internal/services"
	"payme-merchant/pkg/logging"

	"github.com/gin-gonic/gin"
)

// Handler dispatches JSON-RPC requests from the payment processor to the
// merchant API methods.
type Handler struct {
	orders       *services.OrderService
	transactions *services.TransactionService
	locks        services.OrderLocker
	verifier     *auth.Verifier
	webhooks     *services.WebhookNotifier
	mail         *services.MailNotifier
}

// NewHandler creates the merchant API handler
func NewHandler(
	orders *services.OrderService,
	transactions *services.TransactionService,
	locks services.OrderLocker,
	verifier *auth.Verifier,
	webhooks *services.WebhookNotifier,
	mail *services.MailNotifier,
) *Handler {
	return &Handler{
		orders:       orders,
		transactions: transactions,
		locks:        locks,
		verifier:     verifier,
		webhooks:     webhooks,
		mail:         mail,
	}
}

// HandleRPC handles one JSON-RPC request. Every outcome, including domain
// failures, is an HTTP 200 with exactly one of result/error set.
// POST /api/payme
func (h *Handler) HandleRPC(c *gin.Context) {
	req := middleware.EnvelopeFrom(c)
	if req == nil {
		c.JSON(http.StatusOK, protocol.Fail(nil,
			protocol.NewError(protocol.ErrInvalidJSONRPCObject, "Invalid JSON-RPC object.")))
		return
	}

	result, err := h.dispatch(c.Request.Context(), req)
	if err != nil {
		if _, ok := err.(*protocol.Error); !ok {
			logging.Errorf("Method %s failed: %v", req.Method, err)
		}
		c.JSON(http.StatusOK, protocol.Fail(req.ID, err))
		return
	}

	c.JSON(http.StatusOK, protocol.OK(req.ID, result))
}

func (h *Handler) dispatch(ctx context.Context, req *protocol.Request) (interface{}, error) {
	switch req.Method {
	case "CheckPerformTransaction":
		return h.checkPerformTransaction(ctx, req)
	case "CreateTransaction":
		return h.createTransaction(ctx, req)
	case "PerformTransaction":
		return h.performTransaction(ctx, req)
	case "CancelTransaction":
		return h.cancelTransaction(ctx, req)
	case "CheckTransaction":
		return h.checkTransaction(ctx, req)
	case "GetStatement":
		return h.getStatement(ctx, req)
	case "ChangePassword":
		return h.changePassword(ctx, req)
	default:
		return nil, protocol.NewErrorData(protocol.ErrMethodNotFound, "Method not found.", req.Method)
	}
}

func orderLockKey(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}
