package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hamlet-coop/hamlet-backend/pkg/enums"
)

// LedgerEntry is one signed debt adjustment between an ordered pair of houses.
// Charges are positive and reference the delivery that produced them; payments
// are stored negative and carry no delivery link. The log is append-only:
// corrections are new offsetting entries, never updates.
type LedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromHouseID uuid.UUID             `gorm:"column:from_house_id;type:uuid;not null;index"`
	ToHouseID   uuid.UUID             `gorm:"column:to_house_id;type:uuid;not null;index"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	EntryType   enums.LedgerEntryType `gorm:"column:entry_type;not null;default:'charge'"`
	Description *string               `gorm:"column:description"`
	DeliveryID  *uuid.UUID            `gorm:"column:delivery_id;type:uuid;uniqueIndex"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
