package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	// Wire-protocol values, must never drift
	assert.Equal(t, -32400, ErrInternalSystem)
	assert.Equal(t, -32504, ErrInsufficientPrivilege)
	assert.Equal(t, -32600, ErrInvalidJSONRPCObject)
	assert.Equal(t, -32601, ErrMethodNotFound)
	assert.Equal(t, -31001, ErrInvalidAmount)
	assert.Equal(t, -31003, ErrTransactionNotFound)
	assert.Equal(t, -31007, ErrCouldNotCancel)
	assert.Equal(t, -31008, ErrCouldNotPerform)
	assert.Equal(t, -31050, ErrInvalidAccount)
}

func TestAmountMinor(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   int64
		wantOK bool
	}{
		{"integer", `500000`, 500000, true},
		{"quoted integer", `"500000"`, 500000, true},
		{"zero", `0`, 0, true},
		{"negative", `-100`, 0, false},
		{"fractional", `500.5`, 0, false},
		{"non numeric", `"abc"`, 0, false},
		{"null", `null`, 0, false},
		{"missing", ``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{Amount: json.RawMessage(tt.raw)}
			got, ok := p.AmountMinor()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountOrderID(t *testing.T) {
	p := Params{Account: map[string]interface{}{"order_id": "42"}}
	id, ok := p.AccountOrderID()
	require.True(t, ok)
	assert.Equal(t, uint(42), id)

	// JSON numbers decode as float64
	p = Params{Account: map[string]interface{}{"order_id": float64(7)}}
	id, ok = p.AccountOrderID()
	require.True(t, ok)
	assert.Equal(t, uint(7), id)

	p = Params{Account: map[string]interface{}{"order_id": ""}}
	_, ok = p.AccountOrderID()
	assert.False(t, ok)

	p = Params{}
	_, ok = p.AccountOrderID()
	assert.False(t, ok)
}

func TestEnvelopeExactlyOneOfResultError(t *testing.T) {
	id := int64(5)

	ok := OK(&id, map[string]bool{"allow": true})
	data, err := json.Marshal(ok)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "5", string(decoded["id"]))
	assert.NotEqual(t, "null", string(decoded["result"]))
	assert.Equal(t, "null", string(decoded["error"]))

	fail := Fail(&id, NewErrorData(ErrInvalidAccount, "Incorrect order code.", "order_id"))
	data, err = json.Marshal(fail)
	require.NoError(t, err)

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "5", string(decoded["id"]))
	assert.Equal(t, "null", string(decoded["result"]))
	assert.NotEqual(t, "null", string(decoded["error"]))
}

func TestFailMasksInternalErrors(t *testing.T) {
	env := Fail(nil, errors.New("pq: connection refused"))
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrInternalSystem, env.Error.Code)
	assert.Equal(t, "Internal System Error.", env.Error.Message)
}

func TestLocalizedMessageRendersAllLanguages(t *testing.T) {
	env := Fail(nil, NewError(ErrInvalidAccount,
		Localized("Неверный код заказа.", "Harid kodida xatolik.", "Incorrect order code.")))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ru"`)
	assert.Contains(t, string(data), `"uz"`)
	assert.Contains(t, string(data), `"en"`)
}
