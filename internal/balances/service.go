package balances

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// EntrySource supplies the full ledger history the projection folds over.
type EntrySource interface {
	ListEntries(ctx context.Context) ([]models.LedgerEntry, error)
	ListEntriesForHouse(ctx context.Context, houseID uuid.UUID) ([]models.LedgerEntry, error)
}

// SnapshotCache holds the short-lived serialized projection. Cache
// problems are never surfaced to callers; the projection is always
// recomputable from the ledger.
type SnapshotCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Balance is the signed directional sum one house owes another. Pairs are
// not netted against their reverse: (A,B) and (B,A) are separate rows.
type Balance struct {
	FromHouseID uuid.UUID       `json:"from_house_id"`
	ToHouseID   uuid.UUID       `json:"to_house_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// Service derives pairwise balances from the ledger entry history.
type Service interface {
	Balances(ctx context.Context) ([]Balance, error)
	BalancesForHouse(ctx context.Context, houseID uuid.UUID) ([]Balance, error)
	Invalidate(ctx context.Context)
}

type service struct {
	entries EntrySource
	cache   SnapshotCache
	ttl     time.Duration
	logg    *logger.Logger
}

const snapshotKeyPart = "balances"

// NewService wires a balance service. The cache is optional; with a nil
// cache every call recomputes from the ledger.
func NewService(entries EntrySource, cache SnapshotCache, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if entries == nil {
		return nil, fmt.Errorf("ledger entry source required")
	}
	return &service{entries: entries, cache: cache, ttl: ttl, logg: logg}, nil
}

func (s *service) Balances(ctx context.Context) ([]Balance, error) {
	if cached, ok := s.readSnapshot(ctx); ok {
		return cached, nil
	}

	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger entries")
	}
	balances := Fold(entries)
	s.writeSnapshot(ctx, balances)
	return balances, nil
}

func (s *service) BalancesForHouse(ctx context.Context, houseID uuid.UUID) ([]Balance, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	entries, err := s.entries.ListEntriesForHouse(ctx, houseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house ledger entries")
	}
	return Fold(entries), nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (s *service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.CacheKey(snapshotKeyPart)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("drop balance snapshot: %v", err))
	}
}

// Fold reduces ledger entries into directional pair sums. It is a pure
// function of the entry history: same entries in, same balances out.
func Fold(entries []models.LedgerEntry) []Balance {
	type pair struct {
		from uuid.UUID
		to   uuid.UUID
	}
	sums := map[pair]decimal.Decimal{}
	for _, entry := range entries {
		key := pair{from: entry.FromHouseID, to: entry.ToHouseID}
		sums[key] = sums[key].Add(entry.Amount)
	}

	balances := make([]Balance, 0, len(sums))
	for key, amount := range sums {
		balances = append(balances, Balance{
			FromHouseID: key.from,
			ToHouseID:   key.to,
			Amount:      amount,
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].FromHouseID != balances[j].FromHouseID {
			return balances[i].FromHouseID.String() < balances[j].FromHouseID.String()
		}
		return balances[i].ToHouseID.String() < balances[j].ToHouseID.String()
	})
	return balances
}

func (s *service) readSnapshot(ctx context.Context) ([]Balance, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey(snapshotKeyPart))
	if err != nil {
		return nil, false
	}
	var balances []Balance
	if err := json.Unmarshal([]byte(raw), &balances); err != nil {
		return nil, false
	}
	return balances, true
}

func (s *service) writeSnapshot(ctx context.Context, balances []Balance) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(balances)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey(snapshotKeyPart), string(raw), s.ttl); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("store balance snapshot: %v", err))
	}
}
