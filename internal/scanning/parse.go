package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expense-ledger/internal/expense"
)

// responsePayload mirrors the JSON object the prompt requests from the
// model. total_amount decodes from either a number or a string without
// going through a binary float.
type responsePayload struct {
	Date        string          `json:"date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// ParseResponse converts a backend's raw text into a validated expense
// draft. Markdown code fences around the JSON are tolerated; everything
// else about the output contract is enforced, and violations surface as a
// *ParseError carrying the original text.
func ParseResponse(raw string, imagePath string) (*expense.Draft, error) {
	text := stripCodeFences(raw)

	var payload responsePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("decoding json: %w", err)}
	}

	for field, value := range map[string]string{
		"date":        payload.Date,
		"category":    payload.Category,
		"description": payload.Description,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("missing required field %q", field)}
		}
	}

	// The prompt requests DD.MM.YYYY; any other format is a contract
	// violation, not something to coerce here. A failure is a signal to
	// tighten the prompt.
	date, err := time.Parse("02.01.2006", payload.Date)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("parsing date %q: %w", payload.Date, err)}
	}

	if payload.TotalAmount.IsNegative() {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("negative total_amount %s", payload.TotalAmount)}
	}

	// Conversion is disabled: the exchange rate is pinned to 1.0 and the
	// EUR amount always equals the parsed amount.
	return &expense.Draft{
		Date:             date,
		Category:         payload.Category,
		Description:      payload.Description,
		Amount:           payload.TotalAmount,
		Currency:         normalizeCurrency(payload.Currency),
		AmountEUR:        payload.TotalAmount,
		ExchangeRate:     decimal.NewFromInt(1),
		ReceiptImagePath: imagePath,
		IsVerified:       false,
	}, nil
}

// stripCodeFences removes a markdown code fence wrapping the whole
// response, with or without a "json" language tag. Only fences at the
// exact start and end of the trimmed text are handled; a fenced block
// embedded in prose stays untouched and fails JSON decoding.
func stripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}

	if strings.HasSuffix(text, "```") {
		text = strings.TrimSuffix(text, "```")
	}

	return strings.TrimSpace(text)
}

// normalizeCurrency maps anything that is not recognizably EUR to the
// sentinel "UNKNOWN" code in lieu of performing conversion.
func normalizeCurrency(currency string) string {
	if strings.EqualFold(strings.TrimSpace(currency), "EUR") {
		return "EUR"
	}
	return "UNKNOWN"
}
