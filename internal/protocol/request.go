package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Request is the decoded JSON-RPC request envelope.
type Request struct {
	ID     *int64 `json:"id"`
	Method string `json:"method"`
	Params Params `json:"params"`
}

// Params holds the union of parameters used by the merchant API methods.
// Amount is kept raw so that a non-numeric value can be rejected with the
// protocol's invalid-amount code instead of a generic parse failure.
type Params struct {
	ID       string                 `json:"id"`
	Time     int64                  `json:"time"`
	Amount   json.RawMessage        `json:"amount"`
	Account  map[string]interface{} `json:"account"`
	Reason   *int                   `json:"reason"`
	From     int64                  `json:"from"`
	To       int64                  `json:"to"`
	Password string                 `json:"password"`
}

// AmountMinor parses the amount parameter as a non-negative integer in
// minor currency units (tiyins). Returns false for missing, non-numeric,
// fractional or negative values.
func (p Params) AmountMinor() (int64, bool) {
	raw := bytes.TrimSpace(p.Amount)
	raw = bytes.Trim(raw, `"`)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// AccountField returns the named account parameter normalized to a string.
func (p Params) AccountField(name string) (string, bool) {
	v, ok := p.Account[name]
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case float64:
		return strconv.FormatInt(int64(x), 10), true
	case json.Number:
		return x.String(), true
	default:
		return "", false
	}
}

// AccountOrderID parses account.order_id as a store order identifier.
func (p Params) AccountOrderID() (uint, bool) {
	s, ok := p.AccountField("order_id")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
