package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// settingsRowID is the primary key of the singleton settings row.
const settingsRowID = 1

// SettingsRepo loads and saves the restaurant_settings singleton.
type SettingsRepo struct {
	db DBTX
}

func NewSettingsRepo(db DBTX) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the stored settings, or model.DefaultSettings when the row has
// never been written.
func (r *SettingsRepo) Get(ctx context.Context) (model.Settings, error) {
	var (
		s                     model.Settings
		address, phone, email sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, address, phone, email, tax_percentage, service_charge_percentage, currency, updated_at
		   FROM restaurant_settings WHERE id = ?`, settingsRowID).
		Scan(&s.Name, &address, &phone, &email, &s.TaxPercentage, &s.ServiceChargePercentage, &s.Currency, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	s.Address = nullString(address)
	s.Phone = nullString(phone)
	s.Email = nullString(email)
	return s, nil
}

// Upsert writes the singleton row, creating it on first save.
func (r *SettingsRepo) Upsert(ctx context.Context, s model.Settings) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurant_settings
		   (id, name, address, phone, email, tax_percentage, service_charge_percentage, currency)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE
		   name = VALUES(name), address = VALUES(address), phone = VALUES(phone), email = VALUES(email),
		   tax_percentage = VALUES(tax_percentage),
		   service_charge_percentage = VALUES(service_charge_percentage),
		   currency = VALUES(currency)`,
		settingsRowID, s.Name, s.Address, s.Phone, s.Email, s.TaxPercentage, s.ServiceChargePercentage, s.Currency)
	return err
}
