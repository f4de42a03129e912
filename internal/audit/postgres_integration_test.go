//go:build integration

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("gamevault_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/gamevault_test?sslmode=disable", host, port.Port())
	s, err := Open(ctx, DriverPostgres, dsn)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))

	require.NoError(t, s.Record(ctx, Record{
		Query:     "space horror",
		Limit:     10,
		ClientKey: "127.0.0.1",
		Include:   []string{"space", "horror"},
		Items:     []string{"Dead Space"},
		TookMs:    88,
	}))

	got, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "space horror", got[0].Query)
	assert.Equal(t, []string{"Dead Space"}, got[0].Items)
}
