package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgAuth "github.com/hamlet-coop/hamlet-backend/pkg/auth"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "middleware-test-secret",
	Issuer:            "hamlet-test",
	ExpirationMinutes: 15,
}

func mintHouseToken(t *testing.T, houseID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		HouseID:   houseID,
		HouseName: "Alder House",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func mintAdminToken(t *testing.T) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		Admin: true,
		JTI:   uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint admin token: %v", err)
	}
	return token
}

func TestAuthSeedsHouseContext(t *testing.T) {
	houseID := uuid.New()
	var seenHouse, seenName string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHouse = HouseIDFromContext(r.Context())
		seenName = HouseNameFromContext(r.Context())
	})
	handler := Auth(testJWTConfig, nil)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req.Header.Set("Authorization", "Bearer "+mintHouseToken(t, houseID))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if seenHouse != houseID.String() {
		t.Fatalf("expected house %s got %q", houseID, seenHouse)
	}
	if seenName != "Alder House" {
		t.Fatalf("expected house name seeded, got %q", seenName)
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAuthRejectsTokenSignedElsewhere(t *testing.T) {
	otherCfg := config.JWTConfig{Secret: "other-secret", Issuer: "hamlet-test", ExpirationMinutes: 15}
	token, err := pkgAuth.MintAccessToken(otherCfg, time.Now(), pkgAuth.AccessTokenPayload{HouseID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := Auth(testJWTConfig, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestRequireHouseBlocksAdminToken(t *testing.T) {
	chain := Auth(testJWTConfig, nil)(RequireHouse(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler should not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t))
	rec := httptest.NewRecorder()

	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	var reached bool
	chain := Auth(testJWTConfig, nil)(RequireAdmin(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/houses", nil)
	req.Header.Set("Authorization", "Bearer "+mintAdminToken(t))
	rec := httptest.NewRecorder()

	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !reached {
		t.Fatal("expected admin handler to run")
	}

	// house tokens are not admin tokens
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/houses", nil)
	req.Header.Set("Authorization", "Bearer "+mintHouseToken(t, uuid.New()))
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for house token got %d", rec.Code)
	}
}
