package deliveries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/internal/ledger"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TripDirectory resolves trips for delivery recording.
type TripDirectory interface {
	FindTrip(ctx context.Context, id uuid.UUID) (*models.Trip, error)
}

// errClaimLost aborts a single request's transaction when the claim was
// raced away between listing and fulfilling.
var errClaimLost = errors.New("claim no longer held")

const defaultRecentLimit = 10

// Service converts claimed requests on a trip into priced deliveries,
// charging the receiving house in the ledger as it goes.
type Service interface {
	Deliver(ctx context.Context, input DeliverInput) (int, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Delivery, error)
	ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Delivery, error)
	RecentRows(ctx context.Context, limit int) ([]Row, error)
}

// Row is a flattened delivery for dashboard listings, with house names
// resolved so the read side needs no extra lookups.
type Row struct {
	DeliveryID  uuid.UUID       `gorm:"column:delivery_id" json:"delivery_id"`
	ItemName    string          `gorm:"column:item_name" json:"item_name"`
	Quantity    int             `gorm:"column:quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price" json:"total_price"`
	DeliveredBy string          `gorm:"column:delivered_by" json:"delivered_by"`
	DeliveredTo string          `gorm:"column:delivered_to" json:"delivered_to"`
	DeliveredAt time.Time       `gorm:"column:delivered_at" json:"delivered_at"`
}

type service struct {
	repo     Repository
	requests requests.Repository
	ledger   ledger.Service
	trips    TripDirectory
	tx       txRunner
	metrics  *metrics.ErrandMetrics
}

// DeliverInput maps claimed request ids to the unit price actually paid.
type DeliverInput struct {
	TripID        uuid.UUID
	ActingHouseID uuid.UUID
	UnitPrices    map[uuid.UUID]decimal.Decimal
}

// NewService wires a delivery service with its dependencies.
func NewService(repo Repository, requestRepo requests.Repository, ledgerSvc ledger.Service, trips TripDirectory, tx txRunner, errandMetrics *metrics.ErrandMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if requestRepo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if trips == nil {
		return nil, fmt.Errorf("trip directory required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		requests: requestRepo,
		ledger:   ledgerSvc,
		trips:    trips,
		tx:       tx,
		metrics:  errandMetrics,
	}, nil
}

// Deliver records what was actually bought for the trip's claimed requests.
// Ids that are absent from the price map, not claimed, or claimed by a
// different trip are skipped without error. Each delivered request commits
// as its own transaction: the delivery snapshot, the ledger charge, and the
// fulfilled transition land together or not at all.
func (s *service) Deliver(ctx context.Context, input DeliverInput) (int, error) {
	if input.ActingHouseID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "house identity missing")
	}
	if input.TripID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	trip, err := s.trips.FindTrip(ctx, input.TripID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "trip not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load trip")
	}
	if trip.HouseID != input.ActingHouseID {
		return 0, pkgerrors.New(pkgerrors.CodeForbidden, "trip does not belong to house")
	}
	if trip.Status == enums.TripStatusCompleted {
		return 0, pkgerrors.New(pkgerrors.CodeStateConflict, "trip already completed")
	}

	for _, price := range input.UnitPrices {
		if !price.IsPositive() {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be positive")
		}
	}

	claimed, err := s.requests.ListClaimedByTrip(ctx, trip.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claimed requests")
	}

	delivered := 0
	for _, request := range claimed {
		unitPrice, ok := input.UnitPrices[request.ID]
		if !ok {
			continue
		}
		if err := s.deliverOne(ctx, trip, &request, unitPrice); err != nil {
			if errors.Is(err, errClaimLost) {
				continue
			}
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func (s *service) deliverOne(ctx context.Context, trip *models.Trip, request *models.RequestItem, unitPrice decimal.Decimal) error {
	totalPrice := unitPrice.Mul(decimal.NewFromInt(int64(request.Quantity)))

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		delivery := &models.Delivery{
			ID:                 uuid.New(),
			RequestID:          request.ID,
			TripID:             trip.ID,
			DeliveredByHouseID: trip.HouseID,
			DeliveredToHouseID: request.HouseID,
			ItemName:           request.ItemName,
			Quantity:           request.Quantity,
			UnitPrice:          unitPrice,
			TotalPrice:         totalPrice,
			Notes:              request.Notes,
		}
		if err := s.repo.WithTx(tx).Create(ctx, delivery); err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}

		description := fmt.Sprintf("%dx %s", request.Quantity, request.ItemName)
		if _, err := s.ledger.AppendChargeTx(ctx, tx, ledger.AppendChargeInput{
			FromHouseID: request.HouseID,
			ToHouseID:   trip.HouseID,
			Amount:      totalPrice,
			Description: &description,
			DeliveryID:  &delivery.ID,
		}); err != nil {
			return fmt.Errorf("append charge: %w", err)
		}

		done, err := s.requests.WithTx(tx).MarkFulfilled(ctx, request.ID, trip.ID)
		if err != nil {
			return fmt.Errorf("mark fulfilled: %w", err)
		}
		if !done {
			return errClaimLost
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errClaimLost) {
			return errClaimLost
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record delivery")
	}

	s.metrics.ObserveDelivery(totalPrice)
	return nil
}

func (s *service) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]models.Delivery, error) {
	if tripID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "trip id required")
	}
	deliveries, err := s.repo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trip deliveries")
	}
	return deliveries, nil
}

func (s *service) ListForHouse(ctx context.Context, houseID uuid.UUID) ([]models.Delivery, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	deliveries, err := s.repo.ListForHouse(ctx, houseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list house deliveries")
	}
	return deliveries, nil
}

func (s *service) RecentRows(ctx context.Context, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := s.repo.ListRecentRows(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent deliveries")
	}
	return rows, nil
}
