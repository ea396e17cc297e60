package scanning

import "strings"

// Scanner defines the capability contract for receipt scanning backends:
// given a stored image, return the model's raw text response. Parsing the
// response into an expense draft is a separate concern (see ParseResponse).
type Scanner interface {
	// Scan analyzes the receipt image at the given path and returns the
	// raw model text.
	Scan(imagePath string) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Config selects and configures a scanner backend.
type Config struct {
	Provider      string // "gemini", "openai" or "testing"
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	Categories    []string // guides the model's category choice, not enforced
}

// NewScanner constructs the backend selected by cfg.Provider.
// An unrecognized provider value selects Gemini; this soft fallback is
// deliberate (a configuration typo degrades to the default provider instead
// of refusing to start) and is pinned by a test.
func NewScanner(cfg Config) (Scanner, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Categories)
	case "testing":
		return NewStub(), nil
	case "gemini":
		return NewGemini(cfg.GoogleAPIKey, cfg.GeminiModel, cfg.Categories)
	default:
		return NewGemini(cfg.GoogleAPIKey, cfg.GeminiModel, cfg.Categories)
	}
}
