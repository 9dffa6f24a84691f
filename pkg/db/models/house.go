package models

import (
	"time"

	"github.com/google/uuid"
)

// House is a household participant unit: the identity that requests, travels,
// owes, and pays. Join codes are stored hashed; the plaintext is shown once at
// generation time.
type House struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string    `gorm:"column:name;not null;uniqueIndex"`
	JoinCodeHash string    `gorm:"column:join_code_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
