package balances

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntrySource struct {
	entries []models.LedgerEntry
	calls   int
}

func (f *fakeEntrySource) ListEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	f.calls++
	return f.entries, nil
}

func (f *fakeEntrySource) ListEntriesForHouse(ctx context.Context, houseID uuid.UUID) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	for _, e := range f.entries {
		if e.FromHouseID == houseID || e.ToHouseID == houseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeCache struct {
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", assert.AnError
	}
	return value, nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeCache) CacheKey(parts ...string) string {
	return "hamlet:cache:" + strings.Join(parts, ":")
}

type failingCache struct{}

func (failingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return assert.AnError
}

func (failingCache) Get(ctx context.Context, key string) (string, error) {
	return "", assert.AnError
}

func (failingCache) Del(ctx context.Context, keys ...string) error {
	return assert.AnError
}

func (failingCache) CacheKey(parts ...string) string {
	return "hamlet:cache:" + strings.Join(parts, ":")
}

func mustDecimal(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func charge(from, to uuid.UUID, amount string) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		FromHouseID: from,
		ToHouseID:   to,
		Amount:      mustDecimal(amount),
		EntryType:   enums.LedgerEntryTypeCharge,
	}
}

func payment(from, to uuid.UUID, amount string) models.LedgerEntry {
	return models.LedgerEntry{
		ID:          uuid.New(),
		FromHouseID: from,
		ToHouseID:   to,
		Amount:      mustDecimal(amount).Neg(),
		EntryType:   enums.LedgerEntryTypePayment,
	}
}

func TestFold_directionalSums(t *testing.T) {
	houseA := uuid.New()
	houseB := uuid.New()
	houseC := uuid.New()

	entries := []models.LedgerEntry{
		charge(houseA, houseB, "6.0"),
		payment(houseA, houseB, "5.0"),
		charge(houseB, houseA, "2.0"),
		charge(houseA, houseC, "3.5"),
	}

	balances := Fold(entries)
	require.Len(t, balances, 3)

	byPair := map[[2]uuid.UUID]decimal.Decimal{}
	for _, b := range balances {
		byPair[[2]uuid.UUID{b.FromHouseID, b.ToHouseID}] = b.Amount
	}

	// Charges add, payments subtract, and the reverse pair stays separate.
	assert.True(t, byPair[[2]uuid.UUID{houseA, houseB}].Equal(mustDecimal("1.0")))
	assert.True(t, byPair[[2]uuid.UUID{houseB, houseA}].Equal(mustDecimal("2.0")))
	assert.True(t, byPair[[2]uuid.UUID{houseA, houseC}].Equal(mustDecimal("3.5")))
}

func TestFold_idempotent(t *testing.T) {
	houseA := uuid.New()
	houseB := uuid.New()
	entries := []models.LedgerEntry{
		charge(houseA, houseB, "6.0"),
		payment(houseA, houseB, "5.0"),
	}

	first := Fold(entries)
	second := Fold(entries)
	assert.Equal(t, first, second)
}

func TestService_BalancesUsesSnapshot(t *testing.T) {
	source := &fakeEntrySource{}
	houseA := uuid.New()
	houseB := uuid.New()
	source.entries = []models.LedgerEntry{charge(houseA, houseB, "6.0")}

	cache := newFakeCache()
	svc, err := NewService(source, cache, 5*time.Second, nil)
	require.NoError(t, err)

	first, err := svc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, source.calls)

	// Second read is served from the snapshot. The cache round-trips
	// through JSON, so amounts match numerically rather than byte for byte.
	second, err := svc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].FromHouseID, second[0].FromHouseID)
	assert.Equal(t, first[0].ToHouseID, second[0].ToHouseID)
	assert.True(t, first[0].Amount.Equal(second[0].Amount), "got %s", second[0].Amount)
	assert.Equal(t, 1, source.calls)

	// Invalidation forces a recompute.
	svc.Invalidate(context.Background())
	_, err = svc.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestService_BalancesWithoutCache(t *testing.T) {
	source := &fakeEntrySource{}
	houseA := uuid.New()
	houseB := uuid.New()
	source.entries = []models.LedgerEntry{
		charge(houseA, houseB, "6.0"),
		payment(houseA, houseB, "5.0"),
	}

	svc, err := NewService(source, nil, 0, nil)
	require.NoError(t, err)

	balances, err := svc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Amount.Equal(mustDecimal("1.0")), "got %s", balances[0].Amount)
}

func TestService_CacheFailuresAreSoft(t *testing.T) {
	source := &fakeEntrySource{}
	houseA := uuid.New()
	houseB := uuid.New()
	source.entries = []models.LedgerEntry{charge(houseA, houseB, "6.0")}

	logg := logger.New(logger.Options{ServiceName: "balances-test"})
	svc, err := NewService(source, failingCache{}, 5*time.Second, logg)
	require.NoError(t, err)

	// Reads keep working and recompute every time when the cache is down.
	first, err := svc.Balances(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	_, err = svc.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)

	svc.Invalidate(context.Background())
}

func TestService_BalancesForHouse(t *testing.T) {
	source := &fakeEntrySource{}
	houseA := uuid.New()
	houseB := uuid.New()
	houseC := uuid.New()
	source.entries = []models.LedgerEntry{
		charge(houseA, houseB, "6.0"),
		charge(houseB, houseC, "4.0"),
	}

	svc, err := NewService(source, nil, 0, nil)
	require.NoError(t, err)

	balances, err := svc.BalancesForHouse(context.Background(), houseA)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, houseA, balances[0].FromHouseID)
	assert.Equal(t, houseB, balances[0].ToHouseID)
}
