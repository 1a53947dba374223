package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SettingsStore persists the settings singleton.
type SettingsStore interface {
	Upsert(ctx context.Context, s model.Settings) error
}

// SettingsCache is the read path for settings plus its invalidation hook.
type SettingsCache interface {
	SettingsProvider
	Invalidate(ctx context.Context)
}

// SettingsService reads settings through the cache and writes them to the
// store, dropping the cached copy so the next pricing run sees the edit.
type SettingsService struct {
	store SettingsStore
	cache SettingsCache
	log   *slog.Logger
}

func NewSettingsService(store SettingsStore, cache SettingsCache, log *slog.Logger) *SettingsService {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsService{store: store, cache: cache, log: log}
}

var maxPercentage = decimal.NewFromInt(100)

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	return s.cache.Get(ctx)
}

// Save validates and stores the settings.
func (s *SettingsService) Save(ctx context.Context, in model.Settings) (model.Settings, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	switch {
	case in.Name == "":
		return model.Settings{}, apperr.Validation("name is required")
	case len(in.Currency) != 3:
		return model.Settings{}, apperr.Validation("currency must be a 3-letter code")
	case in.TaxPercentage.IsNegative() || in.TaxPercentage.GreaterThan(maxPercentage):
		return model.Settings{}, apperr.Validation("taxPercentage must be between 0 and 100")
	case in.ServiceChargePercentage.IsNegative() || in.ServiceChargePercentage.GreaterThan(maxPercentage):
		return model.Settings{}, apperr.Validation("serviceChargePercentage must be between 0 and 100")
	}
	if err := s.store.Upsert(ctx, in); err != nil {
		return model.Settings{}, err
	}
	s.cache.Invalidate(ctx)
	s.log.Info("settings updated",
		slog.String("tax", in.TaxPercentage.String()),
		slog.String("service_charge", in.ServiceChargePercentage.String()),
		slog.String("currency", in.Currency))
	return s.cache.Get(ctx)
}
