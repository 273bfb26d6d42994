package api

import (
	"sync"
	"testing"
	"time"

	"payme-merchant/internal/models"
	"payme-merchant/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPerformTransaction(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	resp := env.call(1, "CheckPerformTransaction", map[string]interface{}{
		"amount":  order.Amount,
		"account": map[string]interface{}{"order_id": order.ID},
	})
	require.Nil(t, resp.Error)
	assert.Equal(t, true, resp.Result["allow"])

	// An active transaction blocks the order
	created := env.call(2, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	resp = env.call(3, "CheckPerformTransaction", map[string]interface{}{
		"amount":  order.Amount,
		"account": map[string]interface{}{"order_id": order.ID},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrCouldNotPerform, resp.Error.Code)
}

func TestCheckPerformTransactionValidation(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	resp := env.call(1, "CheckPerformTransaction", map[string]interface{}{
		"amount":  999,
		"account": map[string]interface{}{"order_id": order.ID},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAmount, resp.Error.Code)

	resp = env.call(2, "CheckPerformTransaction", map[string]interface{}{
		"amount":  order.Amount,
		"account": map[string]interface{}{"order_id": 424242},
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, resp.Error.Code)
	assert.Equal(t, "order_id", resp.Error.Data)
}

func TestCreateTransactionIdempotentReplay(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)
	now := models.NowMillis()

	first := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", now))
	require.Nil(t, first.Error)
	assert.EqualValues(t, 1, first.Result["state"])

	second := env.call(2, "CreateTransaction", paymentParams(order, "ptx-1", now))
	require.Nil(t, second.Error)

	assert.Equal(t, first.Result["transaction"], second.Result["transaction"])
	assert.Equal(t, first.Result["create_time"], second.Result["create_time"])

	var count int64
	require.NoError(t, env.db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateTransactionSecondProcessorIDRejected(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	first := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, first.Error)

	second := env.call(2, "CreateTransaction", paymentParams(order, "ptx-2", models.NowMillis()))
	require.NotNil(t, second.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, second.Error.Code)
}

func TestCreateTransactionExpiredIsCancelled(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	created := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	// Backdate past the 12 hour window
	stale := models.NowMillis() - models.TransactionTimeout - 1
	require.NoError(t, env.db.Model(&models.Transaction{}).
		Where("paycom_transaction_id = ?", "ptx-1").
		Update("create_time", stale).Error)

	resp := env.call(2, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrCouldNotPerform, resp.Error.Code)

	var stored models.Transaction
	require.NoError(t, env.db.Where("paycom_transaction_id = ?", "ptx-1").First(&stored).Error)
	assert.Equal(t, models.TransactionStateCancelled, stored.State)
	require.NotNil(t, stored.Reason)
	assert.Equal(t, models.ReasonCancelledByTimeout, *stored.Reason)
}

func TestCreateTransactionStaleProcessorTime(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	stale := models.NowMillis() - models.TransactionTimeout - 1000
	resp := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", stale))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, resp.Error.Code)
	assert.Equal(t, "time", resp.Error.Data)
}

func TestPerformTransaction(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	created := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	performed := env.call(2, "PerformTransaction", map[string]interface{}{"id": "ptx-1"})
	require.Nil(t, performed.Error)
	assert.EqualValues(t, 2, performed.Result["state"])
	assert.NotZero(t, performed.Result["perform_time"])

	var storedOrder models.Order
	require.NoError(t, env.db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStatePayAccepted, storedOrder.State)

	// Idempotent replay: same perform_time, nothing re-mutated
	replayed := env.call(3, "PerformTransaction", map[string]interface{}{"id": "ptx-1"})
	require.Nil(t, replayed.Error)
	assert.Equal(t, performed.Result["perform_time"], replayed.Result["perform_time"])
	assert.EqualValues(t, 2, replayed.Result["state"])

	var stored models.Transaction
	require.NoError(t, env.db.Where("paycom_transaction_id = ?", "ptx-1").First(&stored).Error)
	assert.Zero(t, stored.CancelTime)
}

func TestPerformTransactionNotFound(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.call(1, "PerformTransaction", map[string]interface{}{"id": "no-such"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrTransactionNotFound, resp.Error.Code)
}

func TestPerformTransactionExpired(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	created := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	stale := models.NowMillis() - models.TransactionTimeout - 1
	require.NoError(t, env.db.Model(&models.Transaction{}).
		Where("paycom_transaction_id = ?", "ptx-1").
		Update("create_time", stale).Error)

	resp := env.call(2, "PerformTransaction", map[string]interface{}{"id": "ptx-1"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrCouldNotPerform, resp.Error.Code)

	var stored models.Transaction
	require.NoError(t, env.db.Where("paycom_transaction_id = ?", "ptx-1").First(&stored).Error)
	assert.Equal(t, models.TransactionStateCancelled, stored.State)
	require.NotNil(t, stored.Reason)
	assert.Equal(t, models.ReasonCancelledByTimeout, *stored.Reason)
}

func TestCancelCreatedTransaction(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	created := env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	cancelled := env.call(2, "CancelTransaction", map[string]interface{}{
		"id": "ptx-1", "reason": models.ReasonExecutionFailed,
	})
	require.Nil(t, cancelled.Error)
	assert.EqualValues(t, -1, cancelled.Result["state"])
	assert.NotZero(t, cancelled.Result["cancel_time"])

	var storedOrder models.Order
	require.NoError(t, env.db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStateCancelled, storedOrder.State)

	// Replay returns the recorded cancel
	replayed := env.call(3, "CancelTransaction", map[string]interface{}{
		"id": "ptx-1", "reason": models.ReasonExecutionFailed,
	})
	require.Nil(t, replayed.Error)
	assert.Equal(t, cancelled.Result["cancel_time"], replayed.Result["cancel_time"])
	assert.EqualValues(t, -1, replayed.Result["state"])
}

func TestCancelCompletedTransactionNotAllowed(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	performed := env.call(2, "PerformTransaction", map[string]interface{}{"id": "ptx-1"})
	require.Nil(t, performed.Error)

	resp := env.call(3, "CancelTransaction", map[string]interface{}{
		"id": "ptx-1", "reason": models.ReasonFundReturned,
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrCouldNotCancel, resp.Error.Code)

	// The transaction stays COMPLETED
	var stored models.Transaction
	require.NoError(t, env.db.Where("paycom_transaction_id = ?", "ptx-1").First(&stored).Error)
	assert.Equal(t, models.TransactionStateCompleted, stored.State)
}

func TestCancelCompletedTransactionAllowed(t *testing.T) {
	env := newTestEnv(t, true)
	order := env.seedOrder(500000)

	env.call(1, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	performed := env.call(2, "PerformTransaction", map[string]interface{}{"id": "ptx-1"})
	require.Nil(t, performed.Error)

	resp := env.call(3, "CancelTransaction", map[string]interface{}{
		"id": "ptx-1", "reason": models.ReasonFundReturned,
	})
	require.Nil(t, resp.Error)
	assert.EqualValues(t, -2, resp.Result["state"])

	var storedOrder models.Order
	require.NoError(t, env.db.First(&storedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStateCancelled, storedOrder.State)
}

func TestCheckTransaction(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)

	resp := env.call(1, "CheckTransaction", map[string]interface{}{"id": "no-such"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrTransactionNotFound, resp.Error.Code)

	created := env.call(2, "CreateTransaction", paymentParams(order, "ptx-1", models.NowMillis()))
	require.Nil(t, created.Error)

	resp = env.call(3, "CheckTransaction", map[string]interface{}{"id": "ptx-1"})
	require.Nil(t, resp.Error)
	assert.Equal(t, created.Result["transaction"], resp.Result["transaction"])
	assert.Equal(t, created.Result["create_time"], resp.Result["create_time"])
	assert.EqualValues(t, 0, resp.Result["perform_time"])
	assert.EqualValues(t, 0, resp.Result["cancel_time"])
	assert.EqualValues(t, 1, resp.Result["state"])
	assert.Nil(t, resp.Result["reason"])
}

func TestGetStatement(t *testing.T) {
	env := newTestEnv(t, false)

	base := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	t0 := base.UnixMilli()
	t1 := base.Add(time.Minute).UnixMilli()
	t2 := base.Add(2 * time.Minute).UnixMilli()

	for _, tc := range []struct {
		paycomID string
		time     int64
	}{
		{"ptx-a", t0}, {"ptx-b", t1}, {"ptx-c", t2},
	} {
		order := env.seedOrder(500000)
		resp := env.call(1, "CreateTransaction", paymentParams(order, tc.paycomID, tc.time))
		require.Nil(t, resp.Error)
	}

	resp := env.call(2, "GetStatement", map[string]interface{}{"from": t0, "to": t1})
	require.Nil(t, resp.Error)

	rows, ok := resp.Result["transactions"].([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)

	first := rows[0].(map[string]interface{})
	second := rows[1].(map[string]interface{})
	assert.Equal(t, "ptx-a", first["id"])
	assert.Equal(t, "ptx-b", second["id"])
	assert.EqualValues(t, t0, first["time"])
	assert.EqualValues(t, t1, second["time"])
}

func TestGetStatementValidatesPeriod(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.call(1, "GetStatement", map[string]interface{}{"to": 100})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, resp.Error.Code)
	assert.Equal(t, "from", resp.Error.Data)

	resp = env.call(2, "GetStatement", map[string]interface{}{"from": 100})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, resp.Error.Code)
	assert.Equal(t, "to", resp.Error.Data)

	resp = env.call(3, "GetStatement", map[string]interface{}{"from": 200, "to": 100})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrInvalidAccount, resp.Error.Code)
	assert.Equal(t, "from", resp.Error.Data)
}

func TestConcurrentCreateSameOrder(t *testing.T) {
	env := newTestEnv(t, false)
	order := env.seedOrder(500000)
	now := models.NowMillis()

	var wg sync.WaitGroup
	results := make([]rpcEnvelope, 2)
	for i, paycomID := range []string{"ptx-a", "ptx-b"} {
		wg.Add(1)
		go func(i int, paycomID string) {
			defer wg.Done()
			results[i] = env.call(int64(i), "CreateTransaction", paymentParams(order, paycomID, now))
		}(i, paycomID)
	}
	wg.Wait()

	// Exactly one create wins; the other hits the one-active-transaction rule
	var successes, conflicts int
	for _, resp := range results {
		if resp.Error == nil {
			successes++
		} else if resp.Error.Code == protocol.ErrInvalidAccount {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)

	var count int64
	require.NoError(t, env.db.Model(&models.Transaction{}).
		Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
