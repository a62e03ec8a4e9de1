package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/wabooking/config"
	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, 5*time.Minute), mr
}

func TestRedisCache_Offers(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	dep := time.Date(2030, 3, 2, 9, 30, 0, 0, time.UTC)

	got, err := c.GetOffers(ctx, "BOM", "DEL", dep)
	require.NoError(t, err)
	assert.Nil(t, got)

	offers := []domain.Offer{{ID: "AI100-203003021000", FlightNo: "AI 100", DepartAt: dep.Add(30 * time.Minute), Price: 5800, Currency: "INR"}}
	require.NoError(t, c.SetOffers(ctx, "BOM", "DEL", dep, offers))
	assert.Equal(t, 5*time.Minute, mr.TTL("cache:offers:BOM:DEL:203003020930"))

	got, err = c.GetOffers(ctx, "BOM", "DEL", dep)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "AI100-203003021000", got[0].ID)
	assert.True(t, offers[0].DepartAt.Equal(got[0].DepartAt))

	mr.FastForward(6 * time.Minute)
	got, err = c.GetOffers(ctx, "BOM", "DEL", dep)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCache_IssueLock(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	ok, err := c.AcquireIssueLock(ctx, "key-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireIssueLock(ctx, "key-1", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseIssueLock(ctx, "key-1"))
	ok, err = c.AcquireIssueLock(ctx, "key-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(31 * time.Second)
	ok, err = c.AcquireIssueLock(ctx, "key-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok, "lock expires on its own")
}

func TestRedisCache_PingFailsWhenDown(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
