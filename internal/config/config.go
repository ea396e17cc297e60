package config

import "sync/atomic"

// Config is an immutable snapshot of the application configuration.
// Components receive a snapshot at construction or read the current one
// through a Cell; nothing mutates a Config in place.
type Config struct {
	// AI provider selection
	AIProvider    string // "gemini", "openai" or "testing"
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	// Taxonomy offered to the model and the manual-entry UI
	ExpenseCategories []string
	IncomeCategories  []string
	Currencies        []string
	DefaultCurrency   string

	// Upload handling
	UploadRetentionMinutes int
	MaxImageDimension      int
	JPEGQuality            int
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		AIProvider:    "gemini",
		GeminiModel:   "gemini-1.5-flash",
		OpenAIModel:   "gpt-4o",
		OpenAIBaseURL: "https://api.openai.com/v1",
		ExpenseCategories: []string{
			"Lebensmittel", "Restaurant", "Transport", "Fortgehen", "Rechnungen/Fixkosten",
			"Unterhaltung", "Gesundheit", "Reisen", "Shopping", "Geschenke", "Sonstiges",
		},
		IncomeCategories:       []string{"Gehalt", "Geschenk", "Sonstiges"},
		Currencies:             []string{"EUR", "UNKNOWN"},
		DefaultCurrency:        "EUR",
		UploadRetentionMinutes: 60,
		MaxImageDimension:      2048,
		JPEGQuality:            85,
	}
}

// Cell is a single-writer versioned holder for the current Config.
// Readers always see a complete snapshot; a settings update replaces the
// whole snapshot in one Store call.
type Cell struct {
	current atomic.Pointer[Config]
}

// NewCell creates a Cell seeded with the given snapshot.
func NewCell(cfg *Config) *Cell {
	c := &Cell{}
	c.current.Store(cfg)
	return c
}

// Load returns the current snapshot.
func (c *Cell) Load() *Config {
	return c.current.Load()
}

// Store replaces the current snapshot. The caller must not modify cfg
// after handing it over.
func (c *Cell) Store(cfg *Config) {
	c.current.Store(cfg)
}
