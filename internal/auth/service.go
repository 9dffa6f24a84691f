package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgauth "github.com/hamlet-coop/hamlet-backend/pkg/auth"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/security"
	"gorm.io/gorm"
)

// HouseDirectory resolves houses for login.
type HouseDirectory interface {
	FindHouseByName(ctx context.Context, name string) (*models.House, error)
}

// Service exchanges house join codes or the admin PIN for access tokens.
type Service interface {
	LoginHouse(ctx context.Context, houseName, joinCode string) (string, *models.House, error)
	LoginAdmin(ctx context.Context, pin string) (string, error)
}

type service struct {
	houses HouseDirectory
	jwt    config.JWTConfig
	admin  config.AdminConfig
	now    func() time.Time
}

// NewService wires an auth service with its dependencies.
func NewService(houses HouseDirectory, jwtCfg config.JWTConfig, adminCfg config.AdminConfig) (Service, error) {
	if houses == nil {
		return nil, fmt.Errorf("house directory required")
	}
	return &service{
		houses: houses,
		jwt:    jwtCfg,
		admin:  adminCfg,
		now:    time.Now,
	}, nil
}

// LoginHouse verifies a house join code and mints a house-scoped token.
// Unknown names and wrong codes produce the same error so callers cannot
// probe for house names.
func (s *service) LoginHouse(ctx context.Context, houseName, joinCode string) (string, *models.House, error) {
	houseName = strings.TrimSpace(houseName)
	joinCode = strings.TrimSpace(joinCode)
	if houseName == "" || joinCode == "" {
		return "", nil, pkgerrors.New(pkgerrors.CodeValidation, "house name and join code required")
	}

	house, err := s.houses.FindHouseByName(ctx, houseName)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, invalidCredentials()
		}
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load house")
	}

	ok, err := security.VerifyJoinCode(joinCode, house.JoinCodeHash)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify join code")
	}
	if !ok {
		return "", nil, invalidCredentials()
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		HouseID:   house.ID,
		HouseName: house.Name,
	})
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return token, house, nil
}

// LoginAdmin verifies the shared admin PIN and mints an admin token.
func (s *service) LoginAdmin(ctx context.Context, pin string) (string, error) {
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "admin pin required")
	}
	if s.admin.PIN == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "admin pin not configured")
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(s.admin.PIN)) != 1 {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid admin pin")
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		Admin: true,
		JTI:   uuid.NewString(),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return token, nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid house name or join code")
}
