package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/security"
	"gorm.io/gorm"
)

// Service owns the referential catalog. Deletions are guarded: an entity
// still referenced by requests, trips, stores, or the ledger cannot be
// removed.
type Service interface {
	CreateHouse(ctx context.Context, name string) (*models.House, string, error)
	GetHouse(ctx context.Context, id uuid.UUID) (*models.House, error)
	FindHouseByName(ctx context.Context, name string) (*models.House, error)
	ListHouses(ctx context.Context) ([]models.House, error)
	RenameHouse(ctx context.Context, id uuid.UUID, name string) (*models.House, error)
	DeleteHouse(ctx context.Context, id uuid.UUID) error
	RegenerateJoinCode(ctx context.Context, houseID uuid.UUID) (string, error)
	RegenerateAllJoinCodes(ctx context.Context) (map[string]string, error)

	CreateVillage(ctx context.Context, name string) (*models.Village, error)
	GetVillage(ctx context.Context, id uuid.UUID) (*models.Village, error)
	FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error)
	ListVillages(ctx context.Context) ([]models.Village, error)
	RenameVillage(ctx context.Context, id uuid.UUID, name string) (*models.Village, error)
	DeleteVillage(ctx context.Context, id uuid.UUID) error

	CreateStore(ctx context.Context, name string, villageID uuid.UUID) (*models.Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	ListStoresByVillage(ctx context.Context, villageID uuid.UUID) ([]models.Store, error)
	UpdateStore(ctx context.Context, id uuid.UUID, name string, villageID uuid.UUID) (*models.Store, error)
	DeleteStore(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	joinCode config.JoinCodeConfig
}

// NewService wires a catalog service with its repository.
func NewService(repo Repository, joinCode config.JoinCodeConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, joinCode: joinCode}, nil
}

func (s *service) CreateHouse(ctx context.Context, name string) (*models.House, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "house name required")
	}

	code, err := security.GenerateJoinCode()
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate join code")
	}
	hash, err := security.HashJoinCode(code, s.joinCode)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash join code")
	}

	house := &models.House{
		ID:           uuid.New(),
		Name:         name,
		JoinCodeHash: hash,
	}
	if err := s.repo.CreateHouse(ctx, house); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, "", pkgerrors.New(pkgerrors.CodeConflict, "house name already taken")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create house")
	}
	return house, code, nil
}

func (s *service) GetHouse(ctx context.Context, id uuid.UUID) (*models.House, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id required")
	}
	house, err := s.repo.FindHouse(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
	}
	return house, nil
}

// FindHouseByName exposes raw lookups for the auth layer.
func (s *service) FindHouseByName(ctx context.Context, name string) (*models.House, error) {
	return s.repo.FindHouseByName(ctx, strings.TrimSpace(name))
}

func (s *service) ListHouses(ctx context.Context) ([]models.House, error) {
	houses, err := s.repo.ListHouses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list houses")
	}
	return houses, nil
}

func (s *service) RenameHouse(ctx context.Context, id uuid.UUID, name string) (*models.House, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house name required")
	}
	house, err := s.GetHouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateHouseName(ctx, id, name); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "house name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename house")
	}
	house.Name = name
	return house, nil
}

func (s *service) DeleteHouse(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetHouse(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.HouseInUse(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check house references")
	}
	if inUse {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "house still has requests, trips, or ledger entries")
	}
	if err := s.repo.DeleteHouse(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete house")
	}
	return nil
}

// RegenerateJoinCode rotates a house's join code and returns the new
// plaintext. The old code stops working immediately.
func (s *service) RegenerateJoinCode(ctx context.Context, houseID uuid.UUID) (string, error) {
	if _, err := s.GetHouse(ctx, houseID); err != nil {
		return "", err
	}
	code, err := security.GenerateJoinCode()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate join code")
	}
	hash, err := security.HashJoinCode(code, s.joinCode)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash join code")
	}
	if err := s.repo.UpdateHouseJoinCode(ctx, houseID, hash); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store join code")
	}
	return code, nil
}

// RegenerateAllJoinCodes rotates every house's join code and returns the
// new plaintexts keyed by house name.
func (s *service) RegenerateAllJoinCodes(ctx context.Context) (map[string]string, error) {
	houses, err := s.repo.ListHouses(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list houses")
	}
	codes := make(map[string]string, len(houses))
	for _, house := range houses {
		code, err := s.RegenerateJoinCode(ctx, house.ID)
		if err != nil {
			return nil, err
		}
		codes[house.Name] = code
	}
	return codes, nil
}

func (s *service) CreateVillage(ctx context.Context, name string) (*models.Village, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "village name required")
	}
	village := &models.Village{ID: uuid.New(), Name: name}
	if err := s.repo.CreateVillage(ctx, village); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "village name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create village")
	}
	return village, nil
}

func (s *service) GetVillage(ctx context.Context, id uuid.UUID) (*models.Village, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "village id required")
	}
	village, err := s.repo.FindVillage(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "village not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load village")
	}
	return village, nil
}

// FindVillage exposes raw lookups for collaborating services.
func (s *service) FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error) {
	return s.repo.FindVillage(ctx, id)
}

func (s *service) ListVillages(ctx context.Context) ([]models.Village, error) {
	villages, err := s.repo.ListVillages(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list villages")
	}
	return villages, nil
}

func (s *service) RenameVillage(ctx context.Context, id uuid.UUID, name string) (*models.Village, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "village name required")
	}
	village, err := s.GetVillage(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateVillageName(ctx, id, name); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "village name already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rename village")
	}
	village.Name = name
	return village, nil
}

func (s *service) DeleteVillage(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetVillage(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.VillageInUse(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check village references")
	}
	if inUse {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "village still has stores or trips")
	}
	if err := s.repo.DeleteVillage(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete village")
	}
	return nil
}

func (s *service) CreateStore(ctx context.Context, name string, villageID uuid.UUID) (*models.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name required")
	}
	if _, err := s.GetVillage(ctx, villageID); err != nil {
		return nil, err
	}
	store := &models.Store{ID: uuid.New(), Name: name, VillageID: villageID}
	if err := s.repo.CreateStore(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}
	return store, nil
}

func (s *service) GetStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	store, err := s.repo.FindStore(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

// FindStore exposes raw lookups for collaborating services.
func (s *service) FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	return s.repo.FindStore(ctx, id)
}

func (s *service) ListStores(ctx context.Context) ([]models.Store, error) {
	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	return stores, nil
}

func (s *service) ListStoresByVillage(ctx context.Context, villageID uuid.UUID) ([]models.Store, error) {
	if _, err := s.GetVillage(ctx, villageID); err != nil {
		return nil, err
	}
	stores, err := s.repo.ListStoresByVillage(ctx, villageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list village stores")
	}
	return stores, nil
}

func (s *service) UpdateStore(ctx context.Context, id uuid.UUID, name string, villageID uuid.UUID) (*models.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name required")
	}
	store, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetVillage(ctx, villageID); err != nil {
		return nil, err
	}
	store.Name = name
	store.VillageID = villageID
	if err := s.repo.UpdateStore(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}
	return store, nil
}

func (s *service) DeleteStore(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetStore(ctx, id); err != nil {
		return err
	}
	inUse, err := s.repo.StoreInUse(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check store references")
	}
	if inUse {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "store still has requests or trips")
	}
	if err := s.repo.DeleteStore(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	return nil
}
