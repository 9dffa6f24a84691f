package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delivery is the immutable snapshot of one purchased request: what was bought,
// at what price, by whom and for whom. Exactly one exists per fulfilled request
// and it never changes after creation.
type Delivery struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID          uuid.UUID       `gorm:"column:request_id;type:uuid;not null;uniqueIndex"`
	TripID             uuid.UUID       `gorm:"column:trip_id;type:uuid;not null;index"`
	DeliveredByHouseID uuid.UUID       `gorm:"column:delivered_by_house_id;type:uuid;not null"`
	DeliveredToHouseID uuid.UUID       `gorm:"column:delivered_to_house_id;type:uuid;not null"`
	ItemName           string          `gorm:"column:item_name;not null"`
	Quantity           int             `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice         decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Notes              *string         `gorm:"column:notes"`
	DeliveredAt        time.Time       `gorm:"column:delivered_at;autoCreateTime"`
}
