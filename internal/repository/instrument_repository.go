package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

// InstrumentRepository is the ledger store. It persists instruments and their
// ordered buy and sell lists in the instrument and ledger_transaction tables.
type InstrumentRepository struct {
	db *sql.DB
}

// NewInstrumentRepository creates a new InstrumentRepository with the provided database connection.
func NewInstrumentRepository(db *sql.DB) *InstrumentRepository {
	return &InstrumentRepository{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn inside a new transaction that is committed when fn succeeds.
func (r *InstrumentRepository) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const instrumentColumns = `symbol, name, strategy, watch_date, note, capital_budget, installment_count, created_at, updated_at`

// LoadInstruments returns every instrument with its buy and sell lists in
// stored order. Instruments are ordered by creation time.
//
// Transaction rows whose date or price cannot be parsed are returned with a
// zero value in that field so the reducer rejects them; they never fail the load.
func (r *InstrumentRepository) LoadInstruments(ctx context.Context) ([]model.Instrument, error) {
	q := r.db

	rows, err := q.QueryContext(ctx, `SELECT `+instrumentColumns+` FROM instrument ORDER BY created_at ASC, symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query instrument table: %w", err)
	}

	instruments := []model.Instrument{}
	index := make(map[string]int)
	for rows.Next() {
		inst, err := scanInstrument(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[inst.Symbol] = len(instruments)
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating instrument table: %w", err)
	}
	rows.Close()

	txRows, err := q.QueryContext(ctx, `
		SELECT symbol, id, kind, date, price, quantity, round, note, created_at
		FROM ledger_transaction
		ORDER BY symbol ASC, kind ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		symbol, t, err := scanTransaction(txRows)
		if err != nil {
			return nil, err
		}
		i, ok := index[symbol]
		if !ok {
			continue
		}
		inst := &instruments[i]
		inst.SetTransactions(t.Type, append(inst.Transactions(t.Type), t))
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}

	return instruments, nil
}

// GetInstrument returns one instrument with its transactions.
// Returns apperrors.ErrInstrumentNotFound when the symbol is unknown.
func (r *InstrumentRepository) GetInstrument(ctx context.Context, symbol string) (model.Instrument, error) {
	q := r.db

	row := q.QueryRowContext(ctx, `SELECT `+instrumentColumns+` FROM instrument WHERE symbol = ?`, symbol)
	inst, err := scanInstrument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Instrument{}, apperrors.ErrInstrumentNotFound
	}
	if err != nil {
		return model.Instrument{}, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT symbol, id, kind, date, price, quantity, round, note, created_at
		FROM ledger_transaction
		WHERE symbol = ?
		ORDER BY kind ASC, seq ASC
	`, symbol)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("failed to query ledger_transaction table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, t, err := scanTransaction(rows)
		if err != nil {
			return model.Instrument{}, err
		}
		inst.SetTransactions(t.Type, append(inst.Transactions(t.Type), t))
	}
	if err := rows.Err(); err != nil {
		return model.Instrument{}, fmt.Errorf("error iterating ledger_transaction table: %w", err)
	}

	return inst, nil
}

// CreateInstrument inserts a new instrument and its transactions.
// Returns apperrors.ErrDuplicateInstrument when the symbol is already registered.
func (r *InstrumentRepository) CreateInstrument(ctx context.Context, inst model.Instrument) error {
	return r.inTx(ctx, func(q querier) error {
		var exists int
		err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM instrument WHERE symbol = ?`, inst.Symbol).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check instrument: %w", err)
		}
		if exists > 0 {
			return apperrors.ErrDuplicateInstrument
		}
		return writeInstrument(ctx, q, inst)
	})
}

// SaveInstrument writes one instrument and replaces its stored buy and sell
// lists, inserting the instrument when it does not exist yet.
func (r *InstrumentRepository) SaveInstrument(ctx context.Context, inst model.Instrument) error {
	return r.inTx(ctx, func(q querier) error {
		return writeInstrument(ctx, q, inst)
	})
}

// DeleteInstrument removes an instrument; its transactions cascade.
// Returns apperrors.ErrInstrumentNotFound when the symbol is unknown.
func (r *InstrumentRepository) DeleteInstrument(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM instrument WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete instrument: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.ErrInstrumentNotFound
	}

	return nil
}

// SaveInstruments atomically replaces the whole ledger with instruments.
// Writing an empty set over a non-empty ledger is refused with
// apperrors.ErrEmptySnapshot and leaves the stored data untouched.
func (r *InstrumentRepository) SaveInstruments(ctx context.Context, instruments []model.Instrument) error {
	return r.inTx(ctx, func(q querier) error {
		if len(instruments) == 0 {
			var count int
			if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM instrument`).Scan(&count); err != nil {
				return fmt.Errorf("failed to count instruments: %w", err)
			}
			if count > 0 {
				return apperrors.ErrEmptySnapshot
			}
			return nil
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM ledger_transaction`); err != nil {
			return fmt.Errorf("failed to clear ledger_transaction: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM instrument`); err != nil {
			return fmt.Errorf("failed to clear instrument: %w", err)
		}

		for _, inst := range instruments {
			if err := writeInstrument(ctx, q, inst); err != nil {
				return err
			}
		}
		return nil
	})
}

// Symbols returns every tracked symbol.
func (r *InstrumentRepository) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM instrument ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return symbols, nil
}

func writeInstrument(ctx context.Context, q querier, inst model.Instrument) error {
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	if inst.UpdatedAt.IsZero() {
		inst.UpdatedAt = now
	}

	var watchDate sql.NullString
	if inst.WatchDate != nil {
		watchDate = sql.NullString{String: inst.WatchDate.Format("2006-01-02"), Valid: true}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO instrument (`+instrumentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			strategy = excluded.strategy,
			watch_date = excluded.watch_date,
			note = excluded.note,
			capital_budget = excluded.capital_budget,
			installment_count = excluded.installment_count,
			updated_at = excluded.updated_at
	`,
		inst.Symbol,
		inst.Name,
		inst.Strategy,
		watchDate,
		inst.Note,
		inst.CapitalBudget.String(),
		inst.InstallmentCount,
		inst.CreatedAt.Format(time.RFC3339),
		inst.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert instrument: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM ledger_transaction WHERE symbol = ?`, inst.Symbol); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}

	for _, kind := range []model.TransactionType{model.TransactionBuy, model.TransactionSell} {
		for seq, t := range inst.Transactions(kind) {
			if err := insertTransaction(ctx, q, inst.Symbol, kind, seq, t, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertTransaction(ctx context.Context, q querier, symbol string, kind model.TransactionType, seq int, t model.Transaction, now time.Time) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	round := t.Round
	if kind == model.TransactionSell {
		round = 0
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_transaction (id, symbol, kind, seq, date, price, quantity, round, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		symbol,
		string(kind),
		seq,
		formatDate(t.Date),
		t.Price.String(),
		t.Quantity,
		round,
		t.Note,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstrument(s scanner) (model.Instrument, error) {
	var (
		inst                 model.Instrument
		watchDate            sql.NullString
		budget               string
		createdAt, updatedAt string
	)
	err := s.Scan(
		&inst.Symbol,
		&inst.Name,
		&inst.Strategy,
		&watchDate,
		&inst.Note,
		&budget,
		&inst.InstallmentCount,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Instrument{}, err
	}
	if err != nil {
		return model.Instrument{}, fmt.Errorf("failed to scan instrument: %w", err)
	}

	if watchDate.Valid && watchDate.String != "" {
		if d, err := ParseTime(watchDate.String); err == nil {
			inst.WatchDate = &d
		}
	}
	inst.CapitalBudget, err = decimal.NewFromString(budget)
	if err != nil {
		inst.CapitalBudget = decimal.Zero
	}
	inst.CreatedAt, _ = ParseTime(createdAt)
	inst.UpdatedAt, _ = ParseTime(updatedAt)
	inst.Buys = []model.Transaction{}
	inst.Sells = []model.Transaction{}

	return inst, nil
}

func scanTransaction(s scanner) (string, model.Transaction, error) {
	var (
		symbol, kind, dateStr, priceStr, createdAt string
		t                                          model.Transaction
	)
	err := s.Scan(
		&symbol,
		&t.ID,
		&kind,
		&dateStr,
		&priceStr,
		&t.Quantity,
		&t.Round,
		&t.Note,
		&createdAt,
	)
	if err != nil {
		return "", model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	t.Type = model.TransactionType(kind)
	if d, err := ParseTime(dateStr); err == nil {
		t.Date = d
	}
	if p, err := decimal.NewFromString(priceStr); err == nil {
		t.Price = p
	}
	t.CreatedAt, _ = ParseTime(createdAt)

	return symbol, t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
