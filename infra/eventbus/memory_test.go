package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func recorded(accountID int64) account.TransactionRecorded {
	return account.TransactionRecorded{
		TransactionID: 7,
		Kind:          account.KindDeposit,
		AccountID:     accountID,
		Amount:        decimal.NewFromInt(10),
		BalanceAfter:  decimal.NewFromInt(10),
	}
}

func TestMemoryEventBus_EmitDeliversToRegisteredHandlers(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	var got []eventbus.Event
	bus.Register(account.EventTransactionRecorded, func(_ context.Context, e eventbus.Event) error {
		got = append(got, e)
		return nil
	})
	bus.Register("other", func(context.Context, eventbus.Event) error {
		t.Fatal("handler for another type must not run")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), recorded(1)))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].(account.TransactionRecorded).AccountID)
	assert.Len(t, bus.Published(), 1)
}

func TestMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	calls := 0
	bus.Register(account.EventTransactionRecorded, func(context.Context, eventbus.Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Register(account.EventTransactionRecorded, func(context.Context, eventbus.Event) error {
		calls++
		panic("handler panic")
	})
	bus.Register(account.EventTransactionRecorded, func(context.Context, eventbus.Event) error {
		calls++
		return nil
	})

	assert.NoError(t, bus.Emit(context.Background(), recorded(1)))
	assert.Equal(t, 3, calls)
}

func TestMemoryEventBus_ClearPublished(t *testing.T) {
	bus := NewWithMemory(nil)
	require.NoError(t, bus.Emit(context.Background(), recorded(1)))
	require.NoError(t, bus.Emit(context.Background(), recorded(2)))
	assert.Len(t, bus.Published(), 2)
	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryEventBus_PublishedKeepsRecentHistory(t *testing.T) {
	bus := NewWithMemory(discardLogger())
	bus.SetPublishedHistory(3)
	for id := range int64(10) {
		require.NoError(t, bus.Emit(context.Background(), recorded(id)))
	}
	published := bus.Published()
	require.Len(t, published, 3)
	for i, e := range published {
		assert.Equal(t, int64(7+i), e.(account.TransactionRecorded).AccountID)
	}

	bus.SetPublishedHistory(1)
	published = bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, int64(9), published[0].(account.TransactionRecorded).AccountID)

	bus.SetPublishedHistory(0)
	require.NoError(t, bus.Emit(context.Background(), recorded(11)))
	assert.Empty(t, bus.Published())
}

func TestMemoryEventBus_DefaultHistoryIsBounded(t *testing.T) {
	bus := NewWithMemory(nil)
	for id := range int64(DefaultPublishedHistory + 50) {
		require.NoError(t, bus.Emit(context.Background(), recorded(id)))
	}
	published := bus.Published()
	require.Len(t, published, DefaultPublishedHistory)
	assert.Equal(t, int64(50), published[0].(account.TransactionRecorded).AccountID)
}
