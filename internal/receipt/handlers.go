package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"

	"expense-ledger/internal/expense"
	"expense-ledger/internal/scanning"
)

// maxUploadSize bounds multipart uploads; phone photos can be large.
const maxUploadSize = int64(50 << 20) // 50MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// scanResponse is the upload endpoint's payload: the parsed draft plus the
// stored image's location for preview.
type scanResponse struct {
	Draft      *expense.Draft `json:"draft"`
	ReceiptURL string         `json:"receipt_url"`
}

// handleUploadReceipt accepts a receipt image, runs the scan pipeline and
// returns the draft for human review. Nothing is persisted here; a failed
// scan leaves no partial expense record.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	draft, path, err := s.service.ProcessReceipt(data, header.Filename)
	if err != nil {
		var invalidImage *InvalidImageError
		var parseErr *scanning.ParseError
		switch {
		case errors.As(err, &invalidImage):
			writeError(w, http.StatusBadRequest, "The uploaded file is not a valid image")
		case errors.As(err, &parseErr):
			slog.Error("Scan response did not match the expected format", "error", err)
			writeError(w, http.StatusBadGateway, "The scanner returned an unreadable result, please try again")
		default:
			slog.Error("Error processing receipt", "error", err)
			writeError(w, http.StatusBadGateway, "Scanning failed, please try again")
		}
		return
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Draft:      draft,
		ReceiptURL: s.service.PublicURL(filepath.Base(path)),
	})
}

// handleCreateExpense persists a human-confirmed draft. The conversion
// invariants are re-applied server-side so a client cannot submit a row
// where amount_eur drifts from amount.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var draft expense.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expense payload")
		return
	}

	if draft.Date.IsZero() || draft.Category == "" {
		writeError(w, http.StatusBadRequest, "date and category are required")
		return
	}
	if draft.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}

	draft.AmountEUR = draft.Amount
	draft.ExchangeRate = decimal.NewFromInt(1)

	created, err := s.expenses.CreateExpense(&draft)
	if err != nil {
		slog.Error("Error creating expense", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleListExpenses returns persisted expenses, newest first.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	expenses, err := s.expenses.ListExpenses(limit, offset)
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// handleExpenseStats returns the dashboard aggregates.
func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.expenses.Stats()
	if err != nil {
		slog.Error("Error computing stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleUploadedFile serves a stored receipt image. The path value is
// reduced to its base name so requests cannot reach outside the store root.
func (s *Server) handleUploadedFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("file"))
	if name == "." || name == "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.service.store.BasePath(), name))
}
