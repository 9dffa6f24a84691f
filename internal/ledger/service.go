package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines operations that append entries to the shared ledger.
// Entries are immutable once written; corrections are new entries.
type Service interface {
	AppendCharge(ctx context.Context, input AppendChargeInput) (*models.LedgerEntry, error)
	AppendChargeTx(ctx context.Context, tx *gorm.DB, input AppendChargeInput) (*models.LedgerEntry, error)
	AppendPayment(ctx context.Context, input AppendPaymentInput) (*models.LedgerEntry, error)
	ListEntries(ctx context.Context) ([]models.LedgerEntry, error)
	ListRecentEntries(ctx context.Context, limit int) ([]models.LedgerEntry, error)
	ListEntriesForHouse(ctx context.Context, houseID uuid.UUID) ([]models.LedgerEntry, error)
}

type service struct {
	repo Repository
}

// AppendChargeInput captures a debt created by a delivery: the receiving
// house owes the delivering house the delivery total.
type AppendChargeInput struct {
	FromHouseID uuid.UUID
	ToHouseID   uuid.UUID
	Amount      decimal.Decimal
	Description *string
	DeliveryID  *uuid.UUID
}

// AppendPaymentInput captures a settlement between two houses. The amount
// is supplied positive and recorded negated so balance projection is a
// plain sum over entries.
type AppendPaymentInput struct {
	FromHouseID uuid.UUID
	ToHouseID   uuid.UUID
	Amount      decimal.Decimal
	Description *string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AppendCharge(ctx context.Context, input AppendChargeInput) (*models.LedgerEntry, error) {
	return s.AppendChargeTx(ctx, nil, input)
}

func (s *service) AppendChargeTx(ctx context.Context, tx *gorm.DB, input AppendChargeInput) (*models.LedgerEntry, error) {
	if err := validateParties(input.FromHouseID, input.ToHouseID); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		FromHouseID: input.FromHouseID,
		ToHouseID:   input.ToHouseID,
		Amount:      input.Amount,
		EntryType:   enums.LedgerEntryTypeCharge,
		Description: input.Description,
		DeliveryID:  input.DeliveryID,
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append charge")
	}
	return entry, nil
}

func (s *service) AppendPayment(ctx context.Context, input AppendPaymentInput) (*models.LedgerEntry, error) {
	if err := validateParties(input.FromHouseID, input.ToHouseID); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	entry := &models.LedgerEntry{
		ID:          uuid.New(),
		FromHouseID: input.FromHouseID,
		ToHouseID:   input.ToHouseID,
		Amount:      input.Amount.Neg(),
		EntryType:   enums.LedgerEntryTypePayment,
		Description: input.Description,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append payment")
	}
	return entry, nil
}

func (s *service) ListEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) ListRecentEntries(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent ledger entries")
	}
	return entries, nil
}

func (s *service) ListEntriesForHouse(ctx context.Context, houseID uuid.UUID) ([]models.LedgerEntry, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	entries, err := s.repo.ListByHouse(ctx, houseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list house ledger entries")
	}
	return entries, nil
}

func validateParties(from, to uuid.UUID) error {
	if from == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "from house id required")
	}
	if to == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "to house id required")
	}
	if from == to {
		return pkgerrors.New(pkgerrors.CodeValidation, "a house cannot owe itself")
	}
	return nil
}
