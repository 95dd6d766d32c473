package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := LogNotifier{Log: zap.New(core)}

	n.NotifyError(MsgOutOfStock)

	entries := logs.FilterMessage("user notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, MsgOutOfStock, entries[0].ContextMap()["message"])
}

func TestLoad_MalformedIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := newCountingStorage()
	require.NoError(t, store.MemStore.Set(context.Background(), StorageKey, `[{"id":1,"amount":0}]`))

	m, err := Load(context.Background(), Deps{
		Stock:   newFakeAPI(),
		Catalog: newFakeAPI(),
		Storage: store,
		Log:     zap.New(core),
	})
	require.NoError(t, err)
	assert.Empty(t, m.Items())
	assert.Equal(t, 1, logs.FilterMessage("stored cart is malformed, starting empty").Len())
}

func TestMutationFailureIsLoggedWithOp(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	notes := &Recorder{}
	m, err := Load(context.Background(), Deps{
		Stock:    newFakeAPI(),
		Catalog:  newFakeAPI(),
		Storage:  newCountingStorage(),
		Notifier: notes,
		Log:      zap.New(core),
	})
	require.NoError(t, err)

	require.ErrorIs(t, m.RemoveProduct(context.Background(), 1), ErrNotFound)

	entries := logs.FilterMessage("cart mutation failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "remove", fields["op"])
	assert.Equal(t, "not_found", fields["kind"])
	assert.Equal(t, int64(1), fields["product_id"])
	assert.Equal(t, MsgRemoveFailed, fields["message"])
	assert.Equal(t, []string{MsgRemoveFailed}, notes.Messages())
}

func TestFailedMutationLogsOneWarning(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	m, err := Load(context.Background(), Deps{
		Stock:    newFakeAPI(),
		Catalog:  newFakeAPI(),
		Storage:  newCountingStorage(),
		Notifier: LogNotifier{Log: log},
		Log:      log,
	})
	require.NoError(t, err)

	require.ErrorIs(t, m.AddProduct(context.Background(), 4), ErrStockExhausted)

	entries := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "cart mutation failed", entries[0].Message)
	assert.Equal(t, MsgOutOfStock, entries[0].ContextMap()["message"])
}
