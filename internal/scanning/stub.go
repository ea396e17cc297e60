package scanning

import (
	"fmt"
	"log/slog"
	"time"
)

// stubLatency simulates provider latency so callers exercise the same
// blocking behavior as a real backend.
const stubLatency = 250 * time.Millisecond

// Stub is a deterministic scanner for testing and offline development.
// It returns a fixed, valid expense payload without any network call and
// is only reachable through the explicit "testing" provider selection.
type Stub struct{}

// NewStub creates a new Stub Scanner instance
func NewStub() *Stub {
	return &Stub{}
}

// Scan returns a canned model response for the given image.
func (s *Stub) Scan(imagePath string) (string, error) {
	time.Sleep(stubLatency)

	slog.Info("Simulating receipt scan", "path", imagePath)

	return fmt.Sprintf(
		`{"date": %q, "category": "Lebensmittel", "description": "Test Receipt (Billa)", "total_amount": "25.99", "currency": "EUR"}`,
		time.Now().Format("02.01.2006"),
	), nil
}

// Close closes the stub scanner (no-op)
func (s *Stub) Close() error {
	return nil
}
