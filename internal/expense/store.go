package expense

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// Store persists expenses in a SQLite database.
type Store struct {
	conn *sql.DB
}

// NewStore opens the database and runs migrations.
func NewStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	// Amounts are stored as decimal strings to avoid float rounding.
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date DATETIME NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'EUR',
		amount_eur TEXT NOT NULL,
		exchange_rate TEXT NOT NULL DEFAULT '1.0',
		receipt_image_path TEXT,
		is_verified INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// CreateExpense inserts a new expense row from a draft and returns the
// persisted expense with its assigned identity.
func (s *Store) CreateExpense(draft *Draft) (*Expense, error) {
	now := time.Now().UTC()
	res, err := s.conn.Exec(
		`INSERT INTO expenses (date, category, description, amount, currency, amount_eur, exchange_rate, receipt_image_path, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.Date, draft.Category, draft.Description,
		draft.Amount.String(), draft.Currency,
		draft.AmountEUR.String(), draft.ExchangeRate.String(),
		draft.ReceiptImagePath, draft.IsVerified, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}

	return &Expense{
		ID:               id,
		Date:             draft.Date,
		Category:         draft.Category,
		Description:      draft.Description,
		Amount:           draft.Amount,
		Currency:         draft.Currency,
		AmountEUR:        draft.AmountEUR,
		ExchangeRate:     draft.ExchangeRate,
		ReceiptImagePath: draft.ReceiptImagePath,
		IsVerified:       draft.IsVerified,
		CreatedAt:        now,
	}, nil
}

// ListExpenses returns expenses ordered by date descending.
func (s *Store) ListExpenses(limit, offset int) ([]*Expense, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.conn.Query(
		`SELECT id, date, category, description, amount, currency, amount_eur, exchange_rate, receipt_image_path, is_verified, created_at
		 FROM expenses ORDER BY date DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]*Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves a single expense by ID.
func (s *Store) GetExpense(id int64) (*Expense, error) {
	row := s.conn.QueryRow(
		`SELECT id, date, category, description, amount, currency, amount_eur, exchange_rate, receipt_image_path, is_verified, created_at
		 FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// Stats computes the total spent and the per-category breakdown over all
// expenses, using amount_eur so mixed-currency rows aggregate consistently.
func (s *Store) Stats() (*Stats, error) {
	rows, err := s.conn.Query(`SELECT category, amount_eur FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	defer rows.Close()

	// Sum in Go rather than SQL so decimal strings never pass through floats.
	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	total := decimal.Zero
	for rows.Next() {
		var category, amountStr string
		if err := rows.Scan(&category, &amountStr); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parsing stored amount %q: %w", amountStr, err)
		}
		if _, ok := totals[category]; !ok {
			order = append(order, category)
		}
		totals[category] = totals[category].Add(amount)
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stats rows: %w", err)
	}

	stats := &Stats{TotalSpent: total, ByCategory: make([]CategoryTotal, 0, len(order))}
	for _, category := range order {
		stats.ByCategory = append(stats.ByCategory, CategoryTotal{Category: category, Total: totals[category]})
	}
	return stats, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*Expense, error) {
	var (
		e                               Expense
		amount, amountEUR, exchangeRate string
		receiptPath, description        sql.NullString
	)
	err := row.Scan(&e.ID, &e.Date, &e.Category, &description, &amount, &e.Currency,
		&amountEUR, &exchangeRate, &receiptPath, &e.IsVerified, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scanning expense: %w", err)
	}
	e.Description = description.String
	e.ReceiptImagePath = receiptPath.String

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if e.AmountEUR, err = decimal.NewFromString(amountEUR); err != nil {
		return nil, fmt.Errorf("parsing amount_eur %q: %w", amountEUR, err)
	}
	if e.ExchangeRate, err = decimal.NewFromString(exchangeRate); err != nil {
		return nil, fmt.Errorf("parsing exchange_rate %q: %w", exchangeRate, err)
	}
	return &e, nil
}
