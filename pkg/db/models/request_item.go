package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
)

// RequestItem is one house's ask for an item to be purchased at a store.
// ClaimedByTripID and FulfilledByTripID are set at most once and never point
// at a different trip afterwards.
type RequestItem struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseID           uuid.UUID           `gorm:"column:house_id;type:uuid;not null;index"`
	StoreID           uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	ItemName          string              `gorm:"column:item_name;not null"`
	Quantity          int                 `gorm:"column:quantity;not null;default:1"`
	PriceLimit        *decimal.Decimal    `gorm:"column:price_limit;type:numeric(12,2)"`
	Notes             *string             `gorm:"column:notes"`
	Status            enums.RequestStatus `gorm:"column:status;not null;default:'open';index"`
	ClaimedByTripID   *uuid.UUID          `gorm:"column:claimed_by_trip_id;type:uuid;index"`
	FulfilledByTripID *uuid.UUID          `gorm:"column:fulfilled_by_trip_id;type:uuid"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
