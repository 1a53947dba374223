// Command seed prepares a fresh POS database: schema, default settings, an
// admin account, a few tables and a starter menu.  Re-running it only adds
// what is missing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/config"
	"github.com/iliyamo/restaurant-pos/internal/database"
	"github.com/iliyamo/restaurant-pos/internal/logger"
	"github.com/iliyamo/restaurant-pos/internal/model"
	"github.com/iliyamo/restaurant-pos/internal/repository"
	"github.com/iliyamo/restaurant-pos/internal/utils"
)

var starterMenu = []struct {
	name  string
	price string
}{
	{"Tomato Soup", "6.50"},
	{"Caesar Salad", "9.00"},
	{"Margherita Pizza", "14.00"},
	{"Grilled Salmon", "21.50"},
	{"Chocolate Cake", "7.25"},
	{"Espresso", "3.00"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("pos-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := seed(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func seed(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	settings := repository.NewSettingsRepo(db)
	current, err := settings.Get(ctx)
	if err != nil {
		return err
	}
	if current.UpdatedAt.IsZero() {
		s := model.DefaultSettings()
		s.TaxPercentage = decimal.NewFromInt(5)
		s.ServiceChargePercentage = decimal.NewFromInt(10)
		if err := settings.Upsert(ctx, s); err != nil {
			return err
		}
		log.Info("default settings written")
	}

	email := envOr("SEED_ADMIN_EMAIL", "admin@restaurant.local")
	hash, err := utils.HashPassword(envOr("SEED_ADMIN_PASSWORD", "admin12345"), cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin := model.User{Name: "Administrator", Email: email, PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
	switch _, err := repository.NewUserRepo(db).Create(ctx, &admin); {
	case errors.Is(err, repository.ErrEmailExists):
		log.Info("admin exists", slog.String("email", email))
	case err != nil:
		return err
	default:
		log.Info("admin created", slog.String("email", email))
	}

	tables := repository.NewTableRepo(db)
	for i := 1; i <= 8; i++ {
		capacity := uint32(2)
		if i > 4 {
			capacity = 4
		}
		t := model.Table{TableNumber: "T" + strconv.Itoa(i), Capacity: capacity}
		if err := tables.Create(ctx, &t); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}

	menu := repository.NewMenuItemRepo(db)
	existing, err := menu.List(ctx, false)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, m := range existing {
		have[m.Name] = true
	}
	added := 0
	for _, it := range starterMenu {
		if have[it.name] {
			continue
		}
		m := model.MenuItem{Name: it.name, Price: decimal.RequireFromString(it.price), IsAvailable: true}
		if err := menu.Create(ctx, &m); err != nil {
			return err
		}
		added++
	}
	log.Info("menu seeded", slog.Int("added", added))
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
