package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.LedgerEntry) error
	entries  []models.LedgerEntry
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepository) ListAll(ctx context.Context) ([]models.LedgerEntry, error) {
	return f.entries, nil
}

func (f *fakeRepository) ListRecent(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	if len(f.entries) <= limit {
		return f.entries, nil
	}
	return f.entries[len(f.entries)-limit:], nil
}

func (f *fakeRepository) ListByHouse(ctx context.Context, houseID uuid.UUID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.FromHouseID == houseID || e.ToHouseID == houseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestService_AppendCharge(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	deliveryID := uuid.New()
	desc := "2x oat milk from Mill Road Grocer"
	input := AppendChargeInput{
		FromHouseID: uuid.New(),
		ToHouseID:   uuid.New(),
		Amount:      decimal.RequireFromString("7.50"),
		Description: &desc,
		DeliveryID:  &deliveryID,
	}

	var created *models.LedgerEntry
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		created = entry
		return nil
	}

	got, err := svc.AppendCharge(context.Background(), input)
	if err != nil {
		t.Fatalf("AppendCharge error: %v", err)
	}
	if created == nil {
		t.Fatal("expected ledger entry to be created")
	}
	if created.FromHouseID != input.FromHouseID || created.ToHouseID != input.ToHouseID {
		t.Fatalf("unexpected parties: %+v", created)
	}
	if !created.Amount.Equal(input.Amount) {
		t.Fatalf("charge amount should be stored as given, got %s", created.Amount)
	}
	if created.EntryType != enums.LedgerEntryTypeCharge {
		t.Fatalf("unexpected entry type %q", created.EntryType)
	}
	if created.DeliveryID == nil || *created.DeliveryID != deliveryID {
		t.Fatalf("expected delivery link on charge: %+v", created)
	}
	if got != created {
		t.Fatal("service should return created entry")
	}
}

func TestService_AppendPaymentStoredNegated(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	input := AppendPaymentInput{
		FromHouseID: uuid.New(),
		ToHouseID:   uuid.New(),
		Amount:      decimal.RequireFromString("12.00"),
	}

	entry, err := svc.AppendPayment(context.Background(), input)
	if err != nil {
		t.Fatalf("AppendPayment error: %v", err)
	}
	if entry.EntryType != enums.LedgerEntryTypePayment {
		t.Fatalf("unexpected entry type %q", entry.EntryType)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("-12.00")) {
		t.Fatalf("payment should be stored negated, got %s", entry.Amount)
	}
	if entry.DeliveryID != nil {
		t.Fatalf("payments must not carry a delivery link: %+v", entry)
	}
}

func TestService_AppendValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	houseA := uuid.New()
	houseB := uuid.New()

	tests := []struct {
		name string
		run  func() error
	}{
		{
			name: "charge missing from house",
			run: func() error {
				_, err := svc.AppendCharge(context.Background(), AppendChargeInput{
					ToHouseID: houseB,
					Amount:    decimal.NewFromInt(5),
				})
				return err
			},
		},
		{
			name: "charge same house both sides",
			run: func() error {
				_, err := svc.AppendCharge(context.Background(), AppendChargeInput{
					FromHouseID: houseA,
					ToHouseID:   houseA,
					Amount:      decimal.NewFromInt(5),
				})
				return err
			},
		},
		{
			name: "charge zero amount",
			run: func() error {
				_, err := svc.AppendCharge(context.Background(), AppendChargeInput{
					FromHouseID: houseA,
					ToHouseID:   houseB,
					Amount:      decimal.Zero,
				})
				return err
			},
		},
		{
			name: "payment negative amount",
			run: func() error {
				_, err := svc.AppendPayment(context.Background(), AppendPaymentInput{
					FromHouseID: houseA,
					ToHouseID:   houseB,
					Amount:      decimal.NewFromInt(-3),
				})
				return err
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestService_AppendChargeRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	expectedErr := errors.New("boom")
	repo.createFn = func(ctx context.Context, entry *models.LedgerEntry) error {
		return expectedErr
	}

	if _, err := svc.AppendCharge(context.Background(), AppendChargeInput{
		FromHouseID: uuid.New(),
		ToHouseID:   uuid.New(),
		Amount:      decimal.NewFromInt(1),
	}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}
