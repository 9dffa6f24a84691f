package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/hamlet-coop/hamlet-backend/internal/catalog"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
)

// Seeds a development database with a small catalog: two villages, a few
// stores, and four houses. Join codes are printed once and never stored
// in plaintext.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	if cfg.App.Env == "production" {
		logg.Error(ctx, "refusing to seed a production database", fmt.Errorf("env is %q", cfg.App.Env))
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()), cfg.JoinCode)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	villages := map[string][]string{
		"Eastmarket": {"Miller's Grocery", "Hearth Bakery"},
		"Westbridge": {"Bridge Pharmacy", "Riverside Market"},
	}
	for villageName, storeNames := range villages {
		village, err := svc.CreateVillage(ctx, villageName)
		if err != nil {
			logg.Error(ctx, "failed to create village", err)
			os.Exit(1)
		}
		for _, storeName := range storeNames {
			if _, err := svc.CreateStore(ctx, storeName, village.ID); err != nil {
				logg.Error(ctx, "failed to create store", err)
				os.Exit(1)
			}
		}
		logg.Info(logg.WithField(ctx, "village", villageName), "seeded village")
	}

	houseNames := []string{"Alder House", "Birch House", "Cedar House", "Dunmore House"}
	for _, name := range houseNames {
		house, code, err := svc.CreateHouse(ctx, name)
		if err != nil {
			logg.Error(ctx, "failed to create house", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\tjoin code: %s\n", house.ID, house.Name, code)
	}

	logg.Info(ctx, "seed complete")
}
