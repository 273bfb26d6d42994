package api

import (
	"context"
	"strings"

	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

// changePassword rotates the merchant password issued by the processor.
// The new password must be non-empty and differ from the current one.
func (h *Handler) changePassword(ctx context.Context, req *protocol.Request) (interface{}, error) {
	password := req.Params.Password

	if strings.TrimSpace(password) == "" {
		return nil, protocol.NewErrorData(protocol.ErrInvalidAccount, "New password not specified.", "password")
	}

	same, err := h.verifier.SamePassword(password)
	if err != nil {
		return nil, err
	}
	if same {
		return nil, protocol.NewError(protocol.ErrInsufficientPrivilege,
			"Insufficient privilege. Incorrect new password.")
	}

	if err := h.verifier.UpdatePassword(password); err != nil {
		return nil, err
	}

	return gin.H{"success": true}, nil
}
