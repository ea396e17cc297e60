package expense

import (
	"time"

	"github.com/shopspring/decimal"
)

// Draft is an AI-parsed expense that has not been persisted or confirmed
// by a human yet. Amounts use decimal arithmetic, never binary floats.
type Draft struct {
	Date             time.Time       `json:"date"`
	Category         string          `json:"category"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	AmountEUR        decimal.Decimal `json:"amount_eur"`     // always equals Amount, conversion is disabled
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`  // always 1.0
	ReceiptImagePath string          `json:"receipt_image_path,omitempty"`
	IsVerified       bool            `json:"is_verified"`
}

// Expense is a persisted expense row.
type Expense struct {
	ID               int64           `json:"id"`
	Date             time.Time       `json:"date"`
	Category         string          `json:"category"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	AmountEUR        decimal.Decimal `json:"amount_eur"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	ReceiptImagePath string          `json:"receipt_image_path,omitempty"`
	IsVerified       bool            `json:"is_verified"`
	CreatedAt        time.Time       `json:"created_at"`
}

// CategoryTotal is one row of the per-category spending breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Stats aggregates spending totals for the dashboard.
type Stats struct {
	TotalSpent decimal.Decimal `json:"total_spent"`
	ByCategory []CategoryTotal `json:"by_category"`
}
