package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/jiangshan001/OpenISave/internal/core"
)

const timestampLayout = "2006-01-02 15:04:05"

// Default bootstrap rates inserted on first initialization, dated "today"
// and tagged source=default.
var defaultRates = []struct {
	from, to string
	rate     string
}{
	{"USD", "CNY", "7.2"},
	{"EUR", "CNY", "7.8"},
	{"GBP", "CNY", "9.0"},
	{"CNY", "USD", "0.1388888888888889"},
	{"USD", "EUR", "0.92"},
	{"EUR", "USD", "1.0869565217391304"},
}

// TxFilter narrows ListTransactions. Zero values mean "no constraint";
// Year and Month only take effect together.
type TxFilter struct {
	Limit     int
	AccountID int64
	Year      int
	Month     int
}

// TypeCurrencyTotal is one row of the dashboard's current-month summary.
type TypeCurrencyTotal struct {
	Type     core.TxType
	Currency string
	Total    decimal.Decimal
}

// SQLiteRepository is the ledger store: accounts, transactions and exchange
// rates. All write operations append; nothing is ever updated or deleted.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db}

	if err := repo.seedDefaults(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// seedDefaults inserts the default account and bootstrap rates. It only acts
// when the respective table is empty, so re-running it is a no-op.
func (r *SQLiteRepository) seedDefaults(ctx context.Context) error {
	var accounts int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&accounts); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if accounts == 0 {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO accounts (name, currency) VALUES (?, ?)`,
			"Main Account", core.DefaultCurrency); err != nil {
			return fmt.Errorf("insert default account: %w", err)
		}
		slog.InfoContext(ctx, "Seeded default account", "name", "Main Account", "currency", core.DefaultCurrency)
	}

	var rates int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchange_rates`).Scan(&rates); err != nil {
		return fmt.Errorf("count exchange rates: %w", err)
	}
	if rates == 0 {
		today := core.DateString(time.Now())
		for _, dr := range defaultRates {
			if _, err := r.db.ExecContext(ctx,
				`INSERT INTO exchange_rates (from_currency, to_currency, rate, date, source) VALUES (?, ?, ?, ?, ?)`,
				dr.from, dr.to, dr.rate, today, core.SourceDefault); err != nil {
				return fmt.Errorf("insert default rate %s->%s: %w", dr.from, dr.to, err)
			}
		}
		slog.InfoContext(ctx, "Seeded default exchange rates", "count", len(defaultRates), "date", today)
	}

	return nil
}

// CreateAccount inserts a validated account. Duplicate names are allowed.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, acc core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, currency) VALUES (?, ?)`,
		acc.Name, acc.Currency)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account last insert id: %w", err)
	}
	acc.ID = id

	slog.InfoContext(ctx, "Account created", "id", acc.ID, "name", acc.Name, "currency", acc.Currency)
	return acc, nil
}

// ListAccounts returns every account ordered by name.
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, currency, created_at FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var (
			acc       core.Account
			createdAt string
		)
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Currency, &createdAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		acc.CreatedAt = parseTimestamp(createdAt)
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// GetAccount returns one account or core.ErrNotFound.
func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	var (
		acc       core.Account
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, created_at FROM accounts WHERE id = ?`, id).
		Scan(&acc.ID, &acc.Name, &acc.Currency, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	acc.CreatedAt = parseTimestamp(createdAt)
	return acc, nil
}

// FirstAccount returns the lowest-id account, the implicit default for
// transactions submitted without one. Returns core.ErrNoAccounts if the
// table is empty.
func (r *SQLiteRepository) FirstAccount(ctx context.Context) (core.Account, error) {
	var (
		acc       core.Account
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, currency, created_at FROM accounts ORDER BY id LIMIT 1`).
		Scan(&acc.ID, &acc.Name, &acc.Currency, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNoAccounts
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("first account: %w", err)
	}
	acc.CreatedAt = parseTimestamp(createdAt)
	return acc, nil
}

// CreateTransaction inserts a validated transaction. A zero AccountID falls
// back to the first account; a non-zero AccountID must reference an existing
// account.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.AccountID == 0 {
		first, err := r.FirstAccount(ctx)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.AccountID = first.ID
	} else {
		if _, err := r.GetAccount(ctx, tx.AccountID); err != nil {
			return core.Transaction{}, err
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, type, category, amount, currency, account_id, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		core.DateString(tx.Date), string(tx.Type), tx.Category,
		tx.Amount.String(), tx.Currency, tx.AccountID, tx.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction last insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID,
		"date", core.DateString(tx.Date),
		"type", tx.Type,
		"category", tx.Category,
		"amount", tx.Amount.String(),
		"currency", tx.Currency,
		"account_id", tx.AccountID)

	return tx, nil
}

// ListTransactions returns transactions joined with their account name,
// newest first (date DESC, id DESC). Month filtering uses calendar-month
// semantics on the stored YYYY-MM-DD date.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, filter TxFilter) ([]core.Transaction, error) {
	query := `SELECT t.id, t.date, t.type, t.category, t.amount, t.currency,
	                 t.account_id, t.note, t.created_at, COALESCE(a.name, '')
	          FROM transactions t
	          LEFT JOIN accounts a ON t.account_id = a.id`
	var (
		conditions []string
		params     []any
	)
	if filter.AccountID != 0 {
		conditions = append(conditions, `t.account_id = ?`)
		params = append(params, filter.AccountID)
	}
	if filter.Year != 0 && filter.Month != 0 {
		conditions = append(conditions, `strftime('%Y', t.date) = ? AND strftime('%m', t.date) = ?`)
		params = append(params, fmt.Sprintf("%04d", filter.Year), fmt.Sprintf("%02d", filter.Month))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += ` WHERE ` + cond
		} else {
			query += ` AND ` + cond
		}
	}
	query += ` ORDER BY t.date DESC, t.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		params = append(params, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// RecordRate appends an exchange rate row. Existing rows for the pair are
// never touched.
func (r *SQLiteRepository) RecordRate(ctx context.Context, rate core.ExchangeRate) (core.ExchangeRate, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO exchange_rates (from_currency, to_currency, rate, date, source)
		 VALUES (?, ?, ?, ?, ?)`,
		rate.FromCurrency, rate.ToCurrency, rate.Rate.String(),
		core.DateString(rate.Date), rate.Source)
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("insert exchange rate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ExchangeRate{}, fmt.Errorf("exchange rate last insert id: %w", err)
	}
	rate.ID = id

	slog.InfoContext(ctx, "Exchange rate recorded",
		"id", rate.ID,
		"from", rate.FromCurrency,
		"to", rate.ToCurrency,
		"rate", rate.Rate.String(),
		"source", rate.Source)

	return rate, nil
}

// ListRates returns rate rows, most recent date first, newest insertion
// first within a date.
func (r *SQLiteRepository) ListRates(ctx context.Context, limit int) ([]core.ExchangeRate, error) {
	query := `SELECT id, from_currency, to_currency, rate, date, source, created_at
	          FROM exchange_rates ORDER BY date DESC, id DESC`
	var params []any
	if limit > 0 {
		query += ` LIMIT ?`
		params = append(params, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []core.ExchangeRate
	for rows.Next() {
		var (
			rate              core.ExchangeRate
			rateStr, dateStr  string
			createdAt         string
		)
		if err := rows.Scan(&rate.ID, &rate.FromCurrency, &rate.ToCurrency,
			&rateStr, &dateStr, &rate.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan exchange rate: %w", err)
		}
		rate.Rate, err = decimal.NewFromString(rateStr)
		if err != nil {
			return nil, fmt.Errorf("parse rate %q: %w", rateStr, err)
		}
		rate.Date, err = time.Parse(core.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse rate date %q: %w", dateStr, err)
		}
		rate.CreatedAt = parseTimestamp(createdAt)
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

// LatestRate returns the current rate for a pair: most recent by date, ties
// broken by insertion order. The second return value is false when no row
// exists for the pair.
func (r *SQLiteRepository) LatestRate(ctx context.Context, from, to string) (decimal.Decimal, bool, error) {
	var rateStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT rate FROM exchange_rates
		 WHERE from_currency = ? AND to_currency = ?
		 ORDER BY date DESC, id DESC LIMIT 1`, from, to).Scan(&rateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("latest rate %s->%s: %w", from, to, err)
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse rate %q: %w", rateStr, err)
	}
	return rate, true, nil
}

// MonthlyTypeTotals sums amounts by (type, currency) for one calendar month.
// Native-currency sums only; no conversion.
func (r *SQLiteRepository) MonthlyTypeTotals(ctx context.Context, year, month int) ([]TypeCurrencyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, currency, amount FROM transactions
		 WHERE strftime('%Y', date) = ? AND strftime('%m', date) = ?`,
		fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month))
	if err != nil {
		return nil, fmt.Errorf("monthly type totals: %w", err)
	}
	defer rows.Close()

	// Amounts are stored as TEXT, so summing happens here in decimal space
	// rather than in SQL float space.
	totals := make(map[[2]string]decimal.Decimal)
	var order [][2]string
	for rows.Next() {
		var txType, currency, amountStr string
		if err := rows.Scan(&txType, &currency, &amountStr); err != nil {
			return nil, fmt.Errorf("scan monthly total row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amountStr, err)
		}
		key := [2]string{txType, currency}
		if _, seen := totals[key]; !seen {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]TypeCurrencyTotal, 0, len(order))
	for _, key := range order {
		result = append(result, TypeCurrencyTotal{
			Type:     core.TxType(key[0]),
			Currency: key[1],
			Total:    totals[key],
		})
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                 core.Transaction
		dateStr, amountStr string
		txType             string
		createdAt          string
	)
	if err := row.Scan(&tx.ID, &dateStr, &txType, &tx.Category, &amountStr,
		&tx.Currency, &tx.AccountID, &tx.Note, &createdAt, &tx.AccountName); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	tx.Date, err = time.Parse(core.DateLayout, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", dateStr, err)
	}
	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction amount %q: %w", amountStr, err)
	}
	tx.Type = core.TxType(txType)
	tx.CreatedAt = parseTimestamp(createdAt)
	return tx, nil
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
