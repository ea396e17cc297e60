package scanning

import "fmt"

// ScanError wraps a provider failure (auth, rate limit, network, timeout,
// malformed response) so callers can distinguish scan failures from parse
// failures without inspecting provider internals.
type ScanError struct {
	Provider string
	Err      error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s scan failed: %v", e.Provider, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ParseError means the model text did not match the expected JSON contract.
// It carries the full raw response, which is often the only clue when a
// model violates the output format.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response: %v (raw response: %s)", e.Err, e.Raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
