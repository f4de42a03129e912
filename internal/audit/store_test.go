package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Record(ctx, Record{
		Query:       "police chase",
		Limit:       10,
		ClientKey:   "10.0.0.1",
		Include:     []string{"police", "chase"},
		LLMFallback: true,
		Items:       []string{"Need for Speed: Hot Pursuit"},
		TookMs:      42,
		CreatedAt:   base,
	}))
	require.NoError(t, s.Record(ctx, Record{
		Query:     "medieval dragons",
		Limit:     5,
		ClientKey: "10.0.0.2",
		Include:   []string{"medieval", "dragon"},
		Exclude:   []string{"magic"},
		Titles:    []string{"Skyrim"},
		Items:     []string{"The Elder Scrolls V: Skyrim", "Kingdom Come: Deliverance"},
		TookMs:    120,
		CreatedAt: base.Add(time.Minute),
	}))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	newest := got[0]
	assert.NotEqual(t, uuid.Nil, newest.ID)
	assert.Equal(t, "medieval dragons", newest.Query)
	assert.Equal(t, []string{"magic"}, newest.Exclude)
	assert.Equal(t, []string{"Skyrim"}, newest.Titles)
	assert.False(t, newest.LLMFallback)
	assert.True(t, newest.CreatedAt.Equal(base.Add(time.Minute)))

	older := got[1]
	assert.True(t, older.LLMFallback)
	assert.Equal(t, []string{}, older.Exclude)
	assert.Equal(t, int64(42), older.TookMs)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_MigrateIdempotent(t *testing.T) {
	s := openSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestStore_Ping(t *testing.T) {
	s := openSQLite(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "x")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestRebind(t *testing.T) {
	pg := NewStore(nil, DriverPostgres)
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))

	lite := NewStore(nil, DriverSQLite)
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}
