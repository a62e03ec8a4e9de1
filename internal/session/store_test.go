package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

// failingBackend fails every call after failAfter successful ones.
type failingBackend struct {
	mu        sync.Mutex
	calls     int
	failAfter int
	inner     *MemoryBackend
}

func (f *failingBackend) fail() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.calls > f.failAfter
}

func (f *failingBackend) Get(ctx context.Context, address string) (domain.Session, bool, error) {
	if f.fail() {
		return domain.Session{}, false, errBackendDown
	}
	return f.inner.Get(ctx, address)
}

func (f *failingBackend) Set(ctx context.Context, address string, s domain.Session, ttl time.Duration) error {
	if f.fail() {
		return errBackendDown
	}
	return f.inner.Set(ctx, address, s, ttl)
}

func (f *failingBackend) Delete(ctx context.Context, address string) error {
	if f.fail() {
		return errBackendDown
	}
	return f.inner.Delete(ctx, address)
}

func (f *failingBackend) DeleteIfVersion(ctx context.Context, address string, version int64) (bool, error) {
	if f.fail() {
		return false, errBackendDown
	}
	return f.inner.DeleteIfVersion(ctx, address, version)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRedisStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(NewRedisBackend(client), WithTTL(time.Hour), WithLogger(quietLogger())), mr
}

func TestStore_GetMissingReturnsFreshSession(t *testing.T) {
	store, _ := newRedisStore(t)

	sess := store.Get(context.Background(), "whatsapp:+911")

	assert.Equal(t, domain.StepSource, sess.Step)
	assert.True(t, sess.Empty())
	assert.False(t, store.Degraded())
}

func TestStore_SetAndGetRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	dep := time.Date(2030, 3, 1, 9, 30, 0, 0, time.UTC)

	saved := store.Set(ctx, "whatsapp:+911", domain.Session{
		Step:        domain.StepPassengersCount,
		SourceCode:  "BOM",
		DestCode:    "DEL",
		DepartureAt: &dep,
		PresentedFlights: []domain.Offer{
			{ID: "AI101-203003010930", Carrier: "AI", FlightNo: "AI101", Price: 5800, Currency: "INR"},
		},
		SelectedFlightID: "AI101-203003010930",
	})
	assert.Equal(t, int64(1), saved.Version)
	assert.True(t, mr.Exists("wa:whatsapp:+911"))
	assert.Equal(t, time.Hour, mr.TTL("wa:whatsapp:+911"))

	got := store.Get(ctx, "whatsapp:+911")
	assert.Equal(t, domain.StepPassengersCount, got.Step)
	assert.Equal(t, "BOM", got.SourceCode)
	require.NotNil(t, got.DepartureAt)
	assert.True(t, dep.Equal(*got.DepartureAt))
	offer, ok := got.SelectedOffer()
	assert.True(t, ok)
	assert.Equal(t, "AI101", offer.FlightNo)
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_SetBumpsVersion(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	first := store.Set(ctx, "a", domain.Session{Step: domain.StepDate})
	second := store.Set(ctx, "a", first)

	assert.Equal(t, first.Version+1, second.Version)
}

func TestStore_SessionExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "a", domain.Session{Step: domain.StepDate, SourceCode: "BOM"})
	mr.FastForward(2 * time.Hour)

	assert.Equal(t, domain.StepSource, store.Get(ctx, "a").Step)
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	store.Set(ctx, "a", domain.Session{Step: domain.StepSeats})
	store.Clear(ctx, "a")
	store.Clear(ctx, "a")

	assert.Equal(t, domain.StepSource, store.Get(ctx, "a").Step)
	assert.False(t, store.Degraded())
}

func TestStore_CorruptBlobReadsAsFresh(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("wa:a", "{not json"))

	sess := store.Get(context.Background(), "a")

	assert.Equal(t, domain.StepSource, sess.Step)
	assert.False(t, store.Degraded())
}

func TestStore_UnknownStepSanitized(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("wa:a", `{"step":"teleport","source_iata":"BOM","version":3}`))

	sess := store.Get(context.Background(), "a")

	assert.Equal(t, domain.StepSource, sess.Step)
	assert.Equal(t, "BOM", sess.SourceCode)
}

func TestStore_ClearIfVersion(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	saved := store.Set(ctx, "a", domain.Session{Step: domain.StepConfirm})
	stale := saved.Version
	store.Set(ctx, "a", saved)

	assert.False(t, store.ClearIfVersion(ctx, "a", stale))
	assert.Equal(t, domain.StepConfirm, store.Get(ctx, "a").Step)

	current := store.Get(ctx, "a").Version
	assert.True(t, store.ClearIfVersion(ctx, "a", current))
	assert.False(t, store.ClearIfVersion(ctx, "a", current))
}

func TestStore_DegradesToMemoryOnFirstFailure(t *testing.T) {
	primary := &failingBackend{failAfter: 1, inner: NewMemoryBackend()}
	store := NewStore(primary, WithLogger(quietLogger()))
	ctx := context.Background()

	store.Set(ctx, "a", domain.Session{Step: domain.StepDate, SourceCode: "BOM"})
	assert.False(t, store.Degraded())

	// primary now fails; the write lands in memory instead
	store.Set(ctx, "a", domain.Session{Step: domain.StepTime, SourceCode: "BOM"})
	assert.True(t, store.Degraded())

	got := store.Get(ctx, "a")
	assert.Equal(t, domain.StepTime, got.Step)

	callsAfterDegrade := primary.calls
	store.Get(ctx, "a")
	store.Clear(ctx, "a")
	assert.Equal(t, callsAfterDegrade, primary.calls, "primary must not be retried once degraded")
	assert.Equal(t, domain.StepSource, store.Get(ctx, "a").Step)
}

func TestStore_CancelledRequestDoesNotDegrade(t *testing.T) {
	store, _ := newRedisStore(t)
	store.Set(context.Background(), "a", domain.Session{Step: domain.StepSeats, SourceCode: "BOM", PassengersTotal: 1})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	store.Get(cancelled, "a")
	store.Set(cancelled, "a", domain.Session{Step: domain.StepSource})

	assert.False(t, store.Degraded())
	assert.Equal(t, domain.StepSeats, store.Get(context.Background(), "a").Step)
}

func TestStore_UnreachableRedisNeverSurfacesErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	store := NewStore(NewRedisBackend(client), WithLogger(quietLogger()))
	ctx := context.Background()

	assert.Equal(t, domain.StepSource, store.Get(ctx, "a").Step)
	assert.True(t, store.Degraded())

	store.Set(ctx, "a", domain.Session{Step: domain.StepDestination, SourceCode: "DEL"})
	assert.Equal(t, "DEL", store.Get(ctx, "a").SourceCode)
}

func TestStore_NilPrimaryStartsDegraded(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))

	assert.True(t, store.Degraded())
	store.Set(context.Background(), "a", domain.Session{Step: domain.StepSeats})
	assert.Equal(t, domain.StepSeats, store.Get(context.Background(), "a").Step)
}

func TestStore_ConcurrentSendersDoNotShareState(t *testing.T) {
	store := NewStore(nil, WithLogger(quietLogger()))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			addr := string(rune('a' + n))
			store.Set(ctx, addr, domain.Session{Step: domain.StepPassengersCount, PassengersTotal: n % 4})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		got := store.Get(ctx, string(rune('a'+i)))
		assert.Equal(t, i%4, got.PassengersTotal)
	}
}
