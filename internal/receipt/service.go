package receipt

import (
	"fmt"
	"log/slog"

	"expense-ledger/internal/expense"
	"expense-ledger/internal/scanning"
)

// defaultScanWorkers bounds how many provider calls run concurrently.
const defaultScanWorkers = 4

// ScannerFactory builds a scanner from the current configuration. The
// service calls it once per scan, so a provider change in the settings
// takes effect on the next upload without a restart.
type ScannerFactory func() (scanning.Scanner, error)

// Service composes the receipt pipeline: normalize the upload into the
// artifact store, dispatch the stored image to the configured backend, and
// parse the model's response into an expense draft.
type Service struct {
	store      *Store
	normalizer *Normalizer
	newScanner ScannerFactory
	pool       *scanPool
}

// NewService creates a Service. workers bounds concurrent provider calls;
// pass 0 for the default.
func NewService(store *Store, normalizer *Normalizer, factory ScannerFactory, workers int) *Service {
	return &Service{
		store:      store,
		normalizer: normalizer,
		newScanner: factory,
		pool:       newScanPool(workers),
	}
}

// SaveReceipt validates and normalizes an uploaded image and returns the
// stored file's path. Fails with *InvalidImageError or *StorageWriteError.
func (s *Service) SaveReceipt(data []byte, filenameHint string) (string, error) {
	path, err := s.normalizer.Normalize(data, filenameHint)
	if err != nil {
		return "", err
	}
	slog.Info("Saved receipt image", "path", path, "original", filenameHint, "bytes", len(data))
	return path, nil
}

// ScanReceipt dispatches a stored receipt image to the configured backend
// and parses the response into a draft. The provider call runs on the
// worker pool; the caller blocks until it completes or times out inside
// the provider client.
func (s *Service) ScanReceipt(path string) (*expense.Draft, error) {
	scanner, err := s.newScanner()
	if err != nil {
		return nil, fmt.Errorf("creating scanner: %w", err)
	}
	defer scanner.Close()

	raw, err := s.pool.submit(scanner, path)
	if err != nil {
		slog.Error("Failed to scan receipt", "path", path, "error", err)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	draft, err := scanning.ParseResponse(raw, path)
	if err != nil {
		slog.Error("Failed to parse scan response", "path", path, "error", err)
		return nil, err
	}

	return draft, nil
}

// ProcessReceipt chains SaveReceipt and ScanReceipt for callers that do
// not need the intermediate path.
func (s *Service) ProcessReceipt(data []byte, filenameHint string) (*expense.Draft, string, error) {
	path, err := s.SaveReceipt(data, filenameHint)
	if err != nil {
		return nil, "", err
	}

	draft, err := s.ScanReceipt(path)
	if err != nil {
		return nil, "", err
	}

	return draft, path, nil
}

// PublicURL maps a stored filename to its public URL.
func (s *Service) PublicURL(filename string) string {
	return s.store.PublicURL(filename)
}

// Close stops the scan worker pool.
func (s *Service) Close() {
	s.pool.close()
}
