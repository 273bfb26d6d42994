package middleware

import (
	"net/http"

	"payme-merchant/internal/auth"
	"payme-merchant/internal/protocol"

	"github.com/gin-gonic/gin"
)

const envelopeKey = "rpc_envelope"

// ParseEnvelope decodes the JSON-RPC request envelope and stores it in the
// request context. A missing or malformed body is answered with the
// invalid-envelope error; the endpoint always responds HTTP 200 with a
// JSON-RPC body, per protocol convention.
func ParseEnvelope() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, protocol.Fail(nil,
				protocol.NewError(protocol.ErrInvalidJSONRPCObject, "Invalid JSON-RPC object.")))
			c.Abort()
			return
		}

		c.Set(envelopeKey, &req)
		c.Next()
	}
}

// MerchantAuth verifies the processor's Basic credentials before any
// method executes. Runs after ParseEnvelope so the error envelope can echo
// the request id.
func MerchantAuth(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := EnvelopeFrom(c)

		login, password, ok := c.Request.BasicAuth()
		if !ok || !verifier.Verify(login, password) {
			var id *int64
			if req != nil {
				id = req.ID
			}
			c.JSON(http.StatusOK, protocol.Fail(id,
				protocol.NewError(protocol.ErrInsufficientPrivilege, "Insufficient privilege to perform this method.")))
			c.Abort()
			return
		}

		c.Next()
	}
}

// EnvelopeFrom returns the envelope stored by ParseEnvelope, nil if absent.
func EnvelopeFrom(c *gin.Context) *protocol.Request {
	if v, exists := c.Get(envelopeKey); exists {
		if req, ok := v.(*protocol.Request); ok {
			return req
		}
	}
	return nil
}
