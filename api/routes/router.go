package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hamlet-coop/hamlet-backend/api/controllers"
	"github.com/hamlet-coop/hamlet-backend/api/middleware"
	"github.com/hamlet-coop/hamlet-backend/internal/auth"
	"github.com/hamlet-coop/hamlet-backend/internal/balances"
	"github.com/hamlet-coop/hamlet-backend/internal/catalog"
	"github.com/hamlet-coop/hamlet-backend/internal/dashboard"
	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	"github.com/hamlet-coop/hamlet-backend/internal/ledger"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	"github.com/hamlet-coop/hamlet-backend/internal/trips"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
	"github.com/hamlet-coop/hamlet-backend/pkg/metrics"
	"github.com/hamlet-coop/hamlet-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	catalogService catalog.Service,
	requestService requests.Service,
	tripService trips.Service,
	deliveryService deliveries.Service,
	ledgerService ledger.Service,
	balanceService balances.Service,
	dashboardService dashboard.Service,
	errandMetrics *metrics.ErrandMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	probes := map[string]controllers.ReadinessProbe{"database": dbP}
	if redisClient != nil {
		probes["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, probes))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLoginHouse(authService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLoginAdmin(authService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireHouse(logg))

		r.Route("/v1/villages", func(r chi.Router) {
			r.Get("/", controllers.VillageList(catalogService, logg))
		})
		r.Route("/v1/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreList(catalogService, logg))
			r.Get("/{storeId}", controllers.StoreGet(catalogService, logg))
		})

		r.Route("/v1/requests", func(r chi.Router) {
			r.Post("/", controllers.RequestCreate(requestService, logg))
			r.Get("/", controllers.RequestList(requestService, logg))
			r.Get("/{requestId}", controllers.RequestGet(requestService, logg))
			r.Post("/{requestId}/cancel", controllers.RequestCancel(requestService, logg))
		})

		r.Route("/v1/trips", func(r chi.Router) {
			r.Post("/", controllers.TripCreate(tripService, logg))
			r.Get("/", controllers.TripListUpcoming(tripService, logg))
			r.Get("/mine", controllers.TripListMine(tripService, logg))
			r.Get("/{tripId}", controllers.TripGet(tripService, logg))
			r.Post("/{tripId}/complete", controllers.TripComplete(tripService, logg))
			r.Get("/{tripId}/candidates", controllers.TripMatchCandidates(requestService, logg))
			r.Post("/{tripId}/claim", controllers.TripClaim(requestService, logg))
			r.Post("/{tripId}/deliver", controllers.TripDeliver(deliveryService, balanceService, logg))
			r.Get("/{tripId}/deliveries", controllers.TripDeliveries(deliveryService, logg))
		})

		r.Route("/v1/deliveries", func(r chi.Router) {
			r.Get("/", controllers.DeliveryListMine(deliveryService, logg))
		})

		r.Route("/v1/ledger", func(r chi.Router) {
			r.Get("/", controllers.LedgerListMine(ledgerService, logg))
			r.Post("/payments", controllers.PaymentRecord(ledgerService, balanceService, errandMetrics, logg))
		})

		r.Route("/v1/balances", func(r chi.Router) {
			r.Get("/", controllers.BalancesList(balanceService, logg))
			r.Get("/mine", controllers.BalancesMine(balanceService, logg))
		})

		r.Get("/v1/dashboard", controllers.DashboardOverview(dashboardService, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/v1/houses", func(r chi.Router) {
			r.Post("/", controllers.AdminHouseCreate(catalogService, logg))
			r.Get("/", controllers.AdminHouseList(catalogService, logg))
			r.Get("/{houseId}", controllers.AdminHouseGet(catalogService, logg))
			r.Put("/{houseId}", controllers.AdminHouseRename(catalogService, logg))
			r.Delete("/{houseId}", controllers.AdminHouseDelete(catalogService, logg))
			r.Post("/{houseId}/join-code", controllers.AdminHouseRegenerateJoinCode(catalogService, logg))
			r.Post("/join-codes/rotate", controllers.AdminHouseRegenerateAllJoinCodes(catalogService, logg))
		})

		r.Route("/v1/villages", func(r chi.Router) {
			r.Post("/", controllers.AdminVillageCreate(catalogService, logg))
			r.Get("/", controllers.VillageList(catalogService, logg))
			r.Put("/{villageId}", controllers.AdminVillageRename(catalogService, logg))
			r.Delete("/{villageId}", controllers.AdminVillageDelete(catalogService, logg))
		})

		r.Route("/v1/stores", func(r chi.Router) {
			r.Post("/", controllers.AdminStoreCreate(catalogService, logg))
			r.Get("/", controllers.StoreList(catalogService, logg))
			r.Put("/{storeId}", controllers.AdminStoreUpdate(catalogService, logg))
			r.Delete("/{storeId}", controllers.AdminStoreDelete(catalogService, logg))
		})

		r.Route("/v1/ledger", func(r chi.Router) {
			r.Get("/", controllers.AdminLedgerList(ledgerService, logg))
		})
	})

	return r
}
