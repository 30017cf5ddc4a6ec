//go:build integration
// +build integration

package weather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewRedisCache(setupRedis(t), time.Minute)

	_, ok, err := c.Get(ctx, "forecast:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	f := Forecast{Latitude: 27.7, Longitude: 85.3, Days: []DailyWeather{{Date: "2026-10-15", HighTempC: 24, LowTempC: 12, RainfallMm: 3}}}
	require.NoError(t, c.Set(ctx, CacheKey(27.7, 85.3), f))

	got, ok, err := c.Get(ctx, CacheKey(27.7, 85.3))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, f.Days, got.Days)
}

func TestRedisCache_BehindForecaster(t *testing.T) {
	ctx := context.Background()
	next := &countingForecaster{}
	cf := NewCachingForecaster(next, NewRedisCache(setupRedis(t), time.Minute), quietLogger())

	cf.Forecast(ctx, 28.21, 83.98)
	cf.Forecast(ctx, 28.21, 83.98)
	assert.Equal(t, int32(1), next.calls.Load())
}
