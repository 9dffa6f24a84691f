package dashboard

import (
	"context"
	"fmt"

	"github.com/hamlet-coop/hamlet-backend/internal/balances"
	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
)

// RequestSource supplies the newest still-open requests.
type RequestSource interface {
	ListRecentOpen(ctx context.Context, limit int) ([]models.RequestItem, error)
}

// TripSource supplies planned trips ordered soonest first.
type TripSource interface {
	ListUpcoming(ctx context.Context) ([]models.Trip, error)
}

// DeliverySource supplies flattened delivery rows with house names resolved.
type DeliverySource interface {
	RecentRows(ctx context.Context, limit int) ([]deliveries.Row, error)
}

// LedgerSource supplies the newest ledger entries.
type LedgerSource interface {
	ListRecentEntries(ctx context.Context, limit int) ([]models.LedgerEntry, error)
}

// BalanceSource supplies the full pairwise balance matrix.
type BalanceSource interface {
	Balances(ctx context.Context) ([]balances.Balance, error)
}

// Overview is the single read model behind the landing view: what is open,
// who is going out, what just arrived, and where the money stands.
type Overview struct {
	OpenRequests     []models.RequestItem `json:"open_requests"`
	UpcomingTrips    []models.Trip        `json:"upcoming_trips"`
	RecentDeliveries []deliveries.Row     `json:"recent_deliveries"`
	RecentLedger     []models.LedgerEntry `json:"recent_ledger"`
	Balances         []balances.Balance   `json:"balances"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	requests  RequestSource
	trips     TripSource
	delivered DeliverySource
	ledger    LedgerSource
	balances  BalanceSource
}

const recentLimit = 10

func NewService(requests RequestSource, trips TripSource, delivered DeliverySource, ledger LedgerSource, bal BalanceSource) (Service, error) {
	if requests == nil || trips == nil || delivered == nil || ledger == nil || bal == nil {
		return nil, fmt.Errorf("all dashboard sources required")
	}
	return &service{requests: requests, trips: trips, delivered: delivered, ledger: ledger, balances: bal}, nil
}

// Overview assembles the composite view. Any source failure fails the
// whole call; every source already wraps its own error with context.
func (s *service) Overview(ctx context.Context) (*Overview, error) {
	open, err := s.requests.ListRecentOpen(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.trips.ListUpcoming(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.delivered.RecentRows(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListRecentEntries(ctx, recentLimit)
	if err != nil {
		return nil, err
	}
	matrix, err := s.balances.Balances(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{
		OpenRequests:     open,
		UpcomingTrips:    upcoming,
		RecentDeliveries: rows,
		RecentLedger:     entries,
		Balances:         matrix,
	}, nil
}
