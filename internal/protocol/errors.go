package protocol

import "fmt"

// Error codes fixed by the Payme merchant API. These values are part of the
// wire protocol and must never change.
const (
	ErrInternalSystem        = -32400
	ErrInsufficientPrivilege = -32504
	ErrInvalidJSONRPCObject  = -32600
	ErrMethodNotFound        = -32601
	ErrInvalidAmount         = -31001
	ErrTransactionNotFound   = -31003
	ErrCouldNotCancel        = -31007
	ErrCouldNotPerform       = -31008
	ErrInvalidAccount        = -31050
)

// Message is a localized error message.
type Message struct {
	Ru string `json:"ru"`
	Uz string `json:"uz"`
	En string `json:"en"`
}

// Localized builds a localized error message.
func Localized(ru, uz, en string) Message {
	return Message{Ru: ru, Uz: uz, En: en}
}

// Error is a domain failure that maps onto a protocol error envelope.
// Message is either a plain string or a localized Message; Data optionally
// names the parameter that caused the error.
type Error struct {
	Code    int
	Message interface{}
	Data    string
}

// NewError creates a protocol error with the given code and message.
func NewError(code int, message interface{}) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorData creates a protocol error naming the offending parameter.
func NewErrorData(code int, message interface{}, data string) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func (e *Error) Error() string {
	if s, ok := e.Message.(string); ok {
		return fmt.Sprintf("payme error %d: %s", e.Code, s)
	}
	if m, ok := e.Message.(Message); ok {
		return fmt.Sprintf("payme error %d: %s", e.Code, m.En)
	}
	return fmt.Sprintf("payme error %d", e.Code)
}
