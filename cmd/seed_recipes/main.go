package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pageza/familyrecipes/backend/config"
	"github.com/pageza/familyrecipes/backend/internal/database"
	"github.com/pageza/familyrecipes/backend/internal/pkg/logger"
	"github.com/pageza/familyrecipes/backend/internal/repos"
	"github.com/pageza/familyrecipes/backend/internal/seed"
	"github.com/pageza/familyrecipes/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg, l)
	if err != nil {
		l.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir, l); err != nil {
		l.Fatal("Failed to run migrations", "error", err)
	}

	recipes := service.NewRecipeService(repos.NewRecipeRepo(db, l), nil, cfg.RateRoles, l)

	res, err := seed.Run(ctx, db, recipes, l.With("component", "seed"))
	if err != nil {
		l.Fatal("Seeding failed", "error", err)
	}
	l.Info("Seeding complete", "items", res.Items, "recipes", res.Recipes, "ratings", res.Ratings, "family_id", seed.FamilyID)
}
