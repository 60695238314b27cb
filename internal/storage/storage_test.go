package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/PriceAlerts/internal/config"
)

type record struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func testBackend(t *testing.T, open func() KeyedStore) {
	ctx := context.Background()

	t.Run("absent key", func(t *testing.T) {
		store := open()
		_, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		store := open()
		require.NoError(t, store.Set(ctx, "alerts", []byte(`[1,2]`)))
		require.NoError(t, store.Set(ctx, "alerts", []byte(`[3]`)))

		v, ok, err := store.Get(ctx, "alerts")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `[3]`, string(v))
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		store := open()
		a := Scoped(store, "alert-agent")
		b := Scoped(store, "analysis-agent")

		require.NoError(t, a.Set(ctx, "key", []byte("a")))
		_, ok, err := b.Get(ctx, "key")
		require.NoError(t, err)
		assert.False(t, ok)

		v, ok, err := a.Get(ctx, "key")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a", string(v))
	})

	t.Run("json records", func(t *testing.T) {
		store := open()
		var got record
		ok, err := LoadJSON(ctx, store, "rec", &got)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, SaveJSON(ctx, store, "rec", record{Name: "BTC", Value: 81000}))
		ok, err = LoadJSON(ctx, store, "rec", &got)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, record{Name: "BTC", Value: 81000}, got)
	})
}

func TestMemory(t *testing.T) {
	testBackend(t, func() KeyedStore { return NewMemory() })
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	n := 0

	testBackend(t, func() KeyedStore {
		n++
		store, err := NewSQLite(ctx, filepath.Join(dir, "store"+string(rune('a'+n))+".db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "alerts.db")

	store, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, SaveJSON(ctx, store, "latest_prices", record{Name: "ETH", Value: 1500}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	var got record
	ok, err := LoadJSON(ctx, reopened, "latest_prices", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ETH", got.Name)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, &config.Config{StorageBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)

	store, err = Open(ctx, &config.Config{
		StorageBackend: config.BackendSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &SQL{}, store)
	require.NoError(t, store.Close())

	_, err = Open(ctx, &config.Config{StorageBackend: "etcd"})
	assert.Error(t, err)
}
