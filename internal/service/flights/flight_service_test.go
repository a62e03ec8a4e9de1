package flights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) ListByRoute(ctx context.Context, origin, destination string, from, until time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, origin, destination, from, until)
	flights, _ := args.Get(0).([]domain.Flight)
	return flights, args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetOffers(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error) {
	args := m.Called(ctx, origin, destination, departure)
	offers, _ := args.Get(0).([]domain.Offer)
	return offers, args.Error(1)
}

func (m *MockCache) SetOffers(ctx context.Context, origin, destination string, departure time.Time, offers []domain.Offer) error {
	args := m.Called(ctx, origin, destination, departure, offers)
	return args.Error(0)
}

var testDeparture = time.Date(2030, 3, 2, 9, 45, 0, 0, time.FixedZone("IST", 5*3600+1800))

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func storedFlights() []domain.Flight {
	dep := testDeparture.Add(2 * time.Hour)
	return []domain.Flight{
		{ID: 7, Carrier: "AI", Airline: "Air India", FlightNo: "AI 865", FromAirport: "BOM", ToAirport: "DEL",
			DepartureTime: dep, ArrivalTime: dep.Add(2 * time.Hour), PriceCents: 720000, Currency: "INR"},
	}
}

func TestFlightService_Search_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, quietLogger())
	ctx := context.Background()

	cached := []domain.Offer{{ID: "AI865-203003020615", FlightNo: "AI 865"}}
	mockCache.On("GetOffers", ctx, "BOM", "DEL", testDeparture).Return(cached, nil).Once()

	result, err := service.Search(ctx, "BOM", "DEL", testDeparture)

	assert.NoError(t, err)
	assert.Equal(t, cached, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "ListByRoute")
	mockCache.AssertNotCalled(t, "SetOffers")
}

func TestFlightService_Search_CacheMissUsesRepository(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, quietLogger())
	ctx := context.Background()

	endOfDay := time.Date(2030, 3, 3, 0, 0, 0, 0, testDeparture.Location())
	mockCache.On("GetOffers", ctx, "BOM", "DEL", testDeparture).Return(nil, nil).Once()
	mockRepo.On("ListByRoute", ctx, "BOM", "DEL", testDeparture, endOfDay).Return(storedFlights(), nil).Once()
	mockCache.On("SetOffers", ctx, "BOM", "DEL", testDeparture, mock.Anything).Return(nil).Once()

	result, err := service.Search(ctx, "BOM", "DEL", testDeparture)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "AI865-203003020615", result[0].ID)
	assert.Equal(t, int64(7200), result[0].Price)
	assert.Equal(t, 120, result[0].DurationMinutes)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Search_CacheErrorFallsThrough(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, quietLogger())
	ctx := context.Background()

	mockCache.On("GetOffers", ctx, "BOM", "DEL", testDeparture).Return(nil, errors.New("cache error")).Once()
	mockRepo.On("ListByRoute", ctx, "BOM", "DEL", testDeparture, mock.Anything).Return(storedFlights(), nil).Once()
	mockCache.On("SetOffers", ctx, "BOM", "DEL", testDeparture, mock.Anything).Return(errors.New("cache error")).Once()

	result, err := service.Search(ctx, "BOM", "DEL", testDeparture)

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Search_RepositoryErrorUsesSchedule(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, quietLogger())
	ctx := context.Background()

	mockRepo.On("ListByRoute", ctx, "BOM", "DEL", testDeparture, mock.Anything).Return(nil, errors.New("database error")).Once()

	result, err := service.Search(ctx, "BOM", "DEL", testDeparture)

	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, "AI 100", result[0].FlightNo)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_NoRepositoryNoCache(t *testing.T) {
	service := NewFlightService(nil, nil, nil)

	result, err := service.Search(context.Background(), "BOM", "DEL", testDeparture)

	require.NoError(t, err)
	require.Len(t, result, 3)
	ids := map[string]bool{}
	for _, o := range result {
		ids[o.ID] = true
	}
	assert.Len(t, ids, 3, "offer ids must be unique within one search")
}

func TestSchedule(t *testing.T) {
	flights := Schedule("BOM", "DEL", testDeparture)

	require.Len(t, flights, 3)
	wantDepartures := []string{"09:30", "10:30", "11:30"}
	wantPrices := []int64{580000, 610000, 640000}
	for i, f := range flights {
		assert.Equal(t, wantDepartures[i], f.DepartureTime.Format("15:04"))
		assert.Equal(t, scheduleDuration, f.ArrivalTime.Sub(f.DepartureTime))
		assert.Equal(t, wantPrices[i], f.PriceCents)
		assert.Equal(t, "BOM", f.FromAirport)
		assert.Equal(t, "DEL", f.ToAirport)
	}
	assert.Equal(t, "IndiGo", flights[1].Airline)
	assert.Equal(t, flights, Schedule("BOM", "DEL", testDeparture))

	offer := flights[0].Offer()
	assert.Equal(t, 125, offer.DurationMinutes)
	assert.Equal(t, int64(5800), offer.Price)
}
