package protocol

import "errors"

// ErrorBody is the error member of the response envelope.
type ErrorBody struct {
	Code    int         `json:"code"`
	Message interface{} `json:"message,omitempty"`
	Data    string      `json:"data,omitempty"`
}

// Envelope is the JSON-RPC response envelope. Exactly one of Result/Error
// is non-null; both keys are always rendered, per protocol convention.
type Envelope struct {
	ID     *int64      `json:"id"`
	Result interface{} `json:"result"`
	Error  *ErrorBody  `json:"error"`
}

// OK builds a success envelope echoing the request id.
func OK(id *int64, result interface{}) Envelope {
	return Envelope{ID: id, Result: result}
}

// Fail builds an error envelope for the given failure. Anything that is not
// a protocol error is rendered as an internal system error; the underlying
// cause is never exposed to the processor.
func Fail(id *int64, err error) Envelope {
	var perr *Error
	if !errors.As(err, &perr) {
		perr = NewError(ErrInternalSystem, "Internal System Error.")
	}
	return Envelope{
		ID: id,
		Error: &ErrorBody{
			Code:    perr.Code,
			Message: perr.Message,
			Data:    perr.Data,
		},
	}
}
