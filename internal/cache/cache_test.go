package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"unilib/internal/report"
	"unilib/internal/storage/stubs"
)

var testAsOf = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

func TestReportCache_DisabledWithoutClient(t *testing.T) {
	c := NewReportCache(nil, time.Minute, zap.NewNop())
	assert.False(t, c.Enabled())

	c.Set(context.Background(), &report.Reports{AsOf: testAsOf})
	_, ok := c.Get(context.Background(), testAsOf)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	assert.Nil(t, NewRedisClient("", "", 0))
	assert.Nil(t, NewRedisClient("127.0.0.1:1", "", 0))
}

func TestKeyIsUTC(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	assert.Equal(t, key(testAsOf), key(testAsOf.In(berlin)))
	assert.Equal(t, "unilib:reports:2024-12-01T00:00:00Z", key(testAsOf))
}

// setupRedis starts a Redis container
func setupRedis(t *testing.T) (string, func()) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.2-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%d", host, port.Int()), func() {
		container.Terminate(ctx)
	}
}

func TestReportCache_RoundTrip(t *testing.T) {
	addr, cleanup := setupRedis(t)
	defer cleanup()

	rdb := NewRedisClient(addr, "", 0)
	require.NotNil(t, rdb)
	c := NewReportCache(rdb, time.Minute, zap.NewNop())
	defer c.Close()

	store := stubs.NewMockDB()
	require.NoError(t, store.Initialize(context.Background()))
	built, err := report.NewAssembler(store, zap.NewNop()).Build(context.Background(), testAsOf)
	require.NoError(t, err)

	_, ok := c.Get(context.Background(), testAsOf)
	assert.False(t, ok)

	c.Set(context.Background(), built)
	cached, ok := c.Get(context.Background(), testAsOf)
	require.True(t, ok)

	assert.Equal(t, built.BuildID, cached.BuildID)
	assert.True(t, built.AsOf.Equal(cached.AsOf))
	require.Len(t, cached.OverdueRisk, len(built.OverdueRisk))
	for i := range built.OverdueRisk {
		assert.True(t, built.OverdueRisk[i].Score.Equal(cached.OverdueRisk[i].Score))
	}
	assert.Equal(t, built.Popularity.BySubject, cached.Popularity.BySubject)
	assert.Equal(t, built.Trend, cached.Trend)

	// Different instants never collide
	_, ok = c.Get(context.Background(), testAsOf.AddDate(0, 0, 1))
	assert.False(t, ok)
}
