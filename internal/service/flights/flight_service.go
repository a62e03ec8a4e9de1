package flights

import (
	"context"
	"log/slog"
	"time"

	"github.com/Domenick1991/wabooking/internal/domain"
	"github.com/Domenick1991/wabooking/internal/repository"
)

type FlightUseCase interface {
	Search(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error)
}

type OfferCache interface {
	GetOffers(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error)
	SetOffers(ctx context.Context, origin, destination string, departure time.Time, offers []domain.Offer) error
}

// FlightService answers searches from the offer cache, then the flights
// table, then the generated schedule. Either repo or cache may be nil.
type FlightService struct {
	repo   repository.FlightRepository
	cache  OfferCache
	logger *slog.Logger
}

func NewFlightService(repo repository.FlightRepository, cache OfferCache, logger *slog.Logger) *FlightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlightService{repo: repo, cache: cache, logger: logger}
}

func (s *FlightService) Search(ctx context.Context, origin, destination string, departure time.Time) ([]domain.Offer, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetOffers(ctx, origin, destination, departure); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	offers := s.scheduled(ctx, origin, destination, departure)
	if len(offers) == 0 {
		offers = toOffers(Schedule(origin, destination, departure))
	}

	if s.cache != nil {
		if err := s.cache.SetOffers(ctx, origin, destination, departure, offers); err != nil {
			s.logger.WarnContext(ctx, "cache offers failed", slog.String("err", err.Error()))
		}
	}
	return offers, nil
}

// scheduled lists stored flights leaving at or after departure on the same
// local day.
func (s *FlightService) scheduled(ctx context.Context, origin, destination string, departure time.Time) []domain.Offer {
	if s.repo == nil {
		return nil
	}
	endOfDay := time.Date(departure.Year(), departure.Month(), departure.Day(), 0, 0, 0, 0, departure.Location()).AddDate(0, 0, 1)

	flights, err := s.repo.ListByRoute(ctx, origin, destination, departure, endOfDay)
	if err != nil {
		s.logger.WarnContext(ctx, "list flights failed",
			slog.String("origin", origin),
			slog.String("destination", destination),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return toOffers(flights)
}

func toOffers(flights []domain.Flight) []domain.Offer {
	offers := make([]domain.Offer, 0, len(flights))
	for _, f := range flights {
		offers = append(offers, f.Offer())
	}
	return offers
}

var _ FlightUseCase = (*FlightService)(nil)
