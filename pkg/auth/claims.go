package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	HouseID   uuid.UUID
	HouseName string
	Admin     bool
	JTI       string
}

// AccessTokenClaims represents the typed JWT issued to clients. Admin
// tokens carry no house identity; house tokens are never admin.
type AccessTokenClaims struct {
	HouseID   uuid.UUID `json:"house_id,omitempty"`
	HouseName string    `json:"house_name,omitempty"`
	Admin     bool      `json:"admin,omitempty"`
	jwt.RegisteredClaims
}
