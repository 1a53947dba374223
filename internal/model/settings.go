package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is the singleton restaurant configuration row.  Pricing reads
// the percentages; the order lifecycle never writes it.
type Settings struct {
	Name                    string          // restaurant_settings.name
	Address                 *string         // restaurant_settings.address
	Phone                   *string         // restaurant_settings.phone
	Email                   *string         // restaurant_settings.email
	TaxPercentage           decimal.Decimal // restaurant_settings.tax_percentage
	ServiceChargePercentage decimal.Decimal // restaurant_settings.service_charge_percentage
	Currency                string          // restaurant_settings.currency
	UpdatedAt               time.Time       // restaurant_settings.updated_at
}

// DefaultSettings is what pricing uses before the row has ever been saved.
func DefaultSettings() Settings {
	return Settings{
		Name:                    "My Restaurant",
		TaxPercentage:           decimal.Zero,
		ServiceChargePercentage: decimal.Zero,
		Currency:                "USD",
	}
}
