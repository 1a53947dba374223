package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/restaurant-pos/internal/apperr"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

type memSettings struct {
	stored      model.Settings
	invalidated int
}

func (m *memSettings) Upsert(_ context.Context, s model.Settings) error { m.stored = s; return nil }
func (m *memSettings) Get(context.Context) (model.Settings, error)      { return m.stored, nil }
func (m *memSettings) Invalidate(context.Context)                       { m.invalidated++ }

func TestSettingsSave(t *testing.T) {
	tests := []struct {
		name    string
		in      model.Settings
		wantErr error
	}{
		{"valid", model.Settings{Name: " Bistro ", Currency: "eur", TaxPercentage: dec("7.5"), ServiceChargePercentage: dec("10")}, nil},
		{"missing name", model.Settings{Currency: "EUR"}, apperr.ErrValidation},
		{"bad currency", model.Settings{Name: "x", Currency: "EURO"}, apperr.ErrValidation},
		{"negative tax", model.Settings{Name: "x", Currency: "EUR", TaxPercentage: dec("-1")}, apperr.ErrValidation},
		{"service over 100", model.Settings{Name: "x", Currency: "EUR", ServiceChargePercentage: dec("100.01")}, apperr.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &memSettings{}
			svc := NewSettingsService(m, m, nil)
			got, err := svc.Save(context.Background(), tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if m.invalidated != 0 {
					t.Fatal("cache invalidated on rejected save")
				}
				return
			}
			if got.Name != "Bistro" || got.Currency != "EUR" || m.invalidated != 1 {
				t.Fatalf("saved = %+v, invalidated = %d", got, m.invalidated)
			}
		})
	}
}
