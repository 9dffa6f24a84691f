package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for the referential catalog: houses,
// villages, and the stores inside them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateHouse(ctx context.Context, house *models.House) error
	FindHouse(ctx context.Context, id uuid.UUID) (*models.House, error)
	FindHouseByName(ctx context.Context, name string) (*models.House, error)
	ListHouses(ctx context.Context) ([]models.House, error)
	UpdateHouseName(ctx context.Context, id uuid.UUID, name string) error
	UpdateHouseJoinCode(ctx context.Context, id uuid.UUID, joinCodeHash string) error
	DeleteHouse(ctx context.Context, id uuid.UUID) error
	HouseInUse(ctx context.Context, id uuid.UUID) (bool, error)

	CreateVillage(ctx context.Context, village *models.Village) error
	FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error)
	ListVillages(ctx context.Context) ([]models.Village, error)
	UpdateVillageName(ctx context.Context, id uuid.UUID, name string) error
	DeleteVillage(ctx context.Context, id uuid.UUID) error
	VillageInUse(ctx context.Context, id uuid.UUID) (bool, error)

	CreateStore(ctx context.Context, store *models.Store) error
	FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	ListStoresByVillage(ctx context.Context, villageID uuid.UUID) ([]models.Store, error)
	UpdateStore(ctx context.Context, store *models.Store) error
	DeleteStore(ctx context.Context, id uuid.UUID) error
	StoreInUse(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateHouse(ctx context.Context, house *models.House) error {
	return r.db.WithContext(ctx).Create(house).Error
}

func (r *repository) FindHouse(ctx context.Context, id uuid.UUID) (*models.House, error) {
	var house models.House
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&house).Error; err != nil {
		return nil, err
	}
	return &house, nil
}

func (r *repository) FindHouseByName(ctx context.Context, name string) (*models.House, error) {
	var house models.House
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&house).Error; err != nil {
		return nil, err
	}
	return &house, nil
}

func (r *repository) ListHouses(ctx context.Context) ([]models.House, error) {
	var houses []models.House
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&houses).Error; err != nil {
		return nil, err
	}
	return houses, nil
}

func (r *repository) UpdateHouseName(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.House{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *repository) UpdateHouseJoinCode(ctx context.Context, id uuid.UUID, joinCodeHash string) error {
	return r.db.WithContext(ctx).
		Model(&models.House{}).
		Where("id = ?", id).
		Update("join_code_hash", joinCodeHash).Error
}

func (r *repository) DeleteHouse(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.House{}).Error
}

// HouseInUse reports whether any request, trip, or ledger entry still
// references the house.
func (r *repository) HouseInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	counts := []struct {
		model any
		where string
		args  []any
	}{
		{&models.RequestItem{}, "house_id = ?", []any{id}},
		{&models.Trip{}, "house_id = ?", []any{id}},
		{&models.LedgerEntry{}, "from_house_id = ? OR to_house_id = ?", []any{id, id}},
	}
	for _, c := range counts {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(c.model).
			Where(c.where, c.args...).
			Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *repository) CreateVillage(ctx context.Context, village *models.Village) error {
	return r.db.WithContext(ctx).Create(village).Error
}

func (r *repository) FindVillage(ctx context.Context, id uuid.UUID) (*models.Village, error) {
	var village models.Village
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&village).Error; err != nil {
		return nil, err
	}
	return &village, nil
}

func (r *repository) ListVillages(ctx context.Context) ([]models.Village, error) {
	var villages []models.Village
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&villages).Error; err != nil {
		return nil, err
	}
	return villages, nil
}

func (r *repository) UpdateVillageName(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).
		Model(&models.Village{}).
		Where("id = ?", id).
		Update("name", name).Error
}

func (r *repository) DeleteVillage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Village{}).Error
}

// VillageInUse reports whether any store or trip still references the
// village.
func (r *repository) VillageInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("village_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("village_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateStore(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *repository) FindStore(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *repository) ListStores(ctx context.Context) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *repository) ListStoresByVillage(ctx context.Context, villageID uuid.UUID) ([]models.Store, error) {
	var stores []models.Store
	if err := r.db.WithContext(ctx).
		Where("village_id = ?", villageID).
		Order("name ASC").
		Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *repository) UpdateStore(ctx context.Context, store *models.Store) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", store.ID).
		Updates(map[string]any{
			"name":       store.Name,
			"village_id": store.VillageID,
		}).Error
}

func (r *repository) DeleteStore(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Store{}).Error
}

// StoreInUse reports whether any request or pinned trip still references
// the store.
func (r *repository) StoreInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RequestItem{}).
		Where("store_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Trip{}).
		Where("store_id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
