package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
)

// Trip is a planned shopping visit by one house to a village, optionally
// pinned to a single store within it (nil = any store in the village).
type Trip struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HouseID       uuid.UUID        `gorm:"column:house_id;type:uuid;not null;index"`
	VillageID     uuid.UUID        `gorm:"column:village_id;type:uuid;not null;index"`
	StoreID       *uuid.UUID       `gorm:"column:store_id;type:uuid"`
	DepartureTime *time.Time       `gorm:"column:departure_time"`
	Notes         *string          `gorm:"column:notes"`
	Status        enums.TripStatus `gorm:"column:status;not null;default:'planned'"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
