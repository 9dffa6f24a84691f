package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pkgauth "github.com/hamlet-coop/hamlet-backend/pkg/auth"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db/models"
	pkgerrors "github.com/hamlet-coop/hamlet-backend/pkg/errors"
	"github.com/hamlet-coop/hamlet-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeHouses struct {
	houses map[string]*models.House
}

func (f *fakeHouses) FindHouseByName(ctx context.Context, name string) (*models.House, error) {
	house, ok := f.houses[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return house, nil
}

func testConfigs() (config.JWTConfig, config.AdminConfig) {
	return config.JWTConfig{
			Secret:            "secret",
			Issuer:            "hamlet",
			ExpirationMinutes: 30,
		}, config.AdminConfig{
			PIN: "4242",
		}
}

func newAuthFixture(t *testing.T, joinCode string) (Service, *models.House, config.JWTConfig) {
	t.Helper()

	hash, err := security.HashJoinCode(joinCode, config.JoinCodeConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	})
	require.NoError(t, err)

	house := &models.House{ID: uuid.New(), Name: "Rose Cottage", JoinCodeHash: hash}
	jwtCfg, adminCfg := testConfigs()
	svc, err := NewService(&fakeHouses{houses: map[string]*models.House{house.Name: house}}, jwtCfg, adminCfg)
	require.NoError(t, err)
	return svc, house, jwtCfg
}

func TestService_LoginHouse(t *testing.T) {
	svc, house, jwtCfg := newAuthFixture(t, "123456")

	token, got, err := svc.LoginHouse(context.Background(), "Rose Cottage", "123456")
	require.NoError(t, err)
	assert.Equal(t, house.ID, got.ID)

	claims, err := pkgauth.ParseAccessToken(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, house.ID, claims.HouseID)
	assert.Equal(t, "Rose Cottage", claims.HouseName)
	assert.False(t, claims.Admin)
}

func TestService_LoginHouseBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "123456")

	_, _, err := svc.LoginHouse(context.Background(), "Rose Cottage", "654321")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)

	// Unknown house yields the same error as a wrong code.
	_, _, err2 := svc.LoginHouse(context.Background(), "No Such House", "123456")
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestService_LoginAdmin(t *testing.T) {
	svc, _, jwtCfg := newAuthFixture(t, "123456")

	token, err := svc.LoginAdmin(context.Background(), "4242")
	require.NoError(t, err)

	claims, err := pkgauth.ParseAccessToken(jwtCfg, token)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
	assert.Equal(t, uuid.Nil, claims.HouseID)

	_, err = svc.LoginAdmin(context.Background(), "0000")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
}
