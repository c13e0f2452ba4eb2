package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/testutil"
)

func TestInstrumentRepository_LoadInstruments(t *testing.T) {
	t.Run("returns empty slice for empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		instruments, err := repo.LoadInstruments(context.Background())
		if err != nil {
			t.Fatalf("LoadInstruments() returned unexpected error: %v", err)
		}
		if instruments == nil || len(instruments) != 0 {
			t.Errorf("Expected empty non-nil slice, got %v", instruments)
		}
	})

	t.Run("returns instruments in registration order with transactions in stored order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		testutil.NewInstrument().WithSymbol("MSFT").
			WithCreatedAt(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).
			Build(t, db)
		testutil.NewInstrument().WithSymbol("AAPL").
			WithCreatedAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)).
			WithBuy("2024-03-01", "170", 5).
			WithBuy("2024-01-10", "150", 10).
			WithSell("2024-04-01", "180", 3).
			Build(t, db)

		instruments, err := repo.LoadInstruments(context.Background())
		if err != nil {
			t.Fatalf("LoadInstruments() returned unexpected error: %v", err)
		}
		if len(instruments) != 2 {
			t.Fatalf("Expected 2 instruments, got %d", len(instruments))
		}
		if instruments[0].Symbol != "AAPL" || instruments[1].Symbol != "MSFT" {
			t.Errorf("Unexpected order: %s, %s", instruments[0].Symbol, instruments[1].Symbol)
		}

		aapl := instruments[0]
		if len(aapl.Buys) != 2 || len(aapl.Sells) != 1 {
			t.Fatalf("Expected 2 buys and 1 sell, got %d and %d", len(aapl.Buys), len(aapl.Sells))
		}
		// list order is kept, not re-sorted by date
		if !aapl.Buys[0].Price.Equal(decimal.NewFromInt(170)) {
			t.Errorf("Expected first stored buy at 170, got %s", aapl.Buys[0].Price)
		}
		if aapl.Buys[1].Round != 2 {
			t.Errorf("Expected round 2, got %d", aapl.Buys[1].Round)
		}
		if aapl.Sells[0].Type != model.TransactionSell {
			t.Errorf("Expected sell type, got %s", aapl.Sells[0].Type)
		}
		if aapl.Sells[0].Round != 0 {
			t.Errorf("Expected sells to carry no round, got %d", aapl.Sells[0].Round)
		}
	})

	t.Run("loads malformed rows as zero values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		testutil.CreateInstrument(t, db, "BAD")

		_, err := db.Exec(`
			INSERT INTO ledger_transaction (id, symbol, kind, seq, date, price, quantity, round, note, created_at)
			VALUES ('x1', 'BAD', 'buy', 0, 'yesterday', 'n/a', 3, 1, '', '2024-01-01T00:00:00Z')
		`)
		if err != nil {
			t.Fatalf("Failed to insert malformed row: %v", err)
		}

		instruments, err := repo.LoadInstruments(context.Background())
		if err != nil {
			t.Fatalf("LoadInstruments() returned unexpected error: %v", err)
		}
		buy := instruments[0].Buys[0]
		if !buy.Date.IsZero() {
			t.Errorf("Expected zero date, got %v", buy.Date)
		}
		if !buy.Price.IsZero() {
			t.Errorf("Expected zero price, got %s", buy.Price)
		}
		if buy.Quantity != 3 {
			t.Errorf("Expected quantity 3, got %d", buy.Quantity)
		}
	})
}

func TestInstrumentRepository_GetInstrument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInstrumentRepository(db)

	want := testutil.NewInstrument().
		WithSymbol("005930.KS").
		WithName("Samsung Electronics").
		WithStrategy("Dividend").
		WithWatchDate("2024-01-05").
		WithNote("memory cycle").
		WithBudget("3000000", 4).
		WithBuy("2024-01-10", "72500.5", 10).
		Build(t, db)

	t.Run("returns stored fields", func(t *testing.T) {
		got, err := repo.GetInstrument(context.Background(), "005930.KS")
		if err != nil {
			t.Fatalf("GetInstrument() returned unexpected error: %v", err)
		}

		if got.Name != want.Name || got.Strategy != want.Strategy || got.Note != want.Note {
			t.Errorf("Descriptive fields mismatch: %+v", got)
		}
		if !got.CapitalBudget.Equal(want.CapitalBudget) || got.InstallmentCount != 4 {
			t.Errorf("Plan mismatch: budget %s, count %d", got.CapitalBudget, got.InstallmentCount)
		}
		if got.WatchDate == nil || !got.WatchDate.Equal(*want.WatchDate) {
			t.Errorf("Expected watch date %v, got %v", want.WatchDate, got.WatchDate)
		}
		if len(got.Buys) != 1 || got.Buys[0].Price.String() != "72500.5" {
			t.Errorf("Unexpected buys: %+v", got.Buys)
		}
		if got.Buys[0].ID != want.Buys[0].ID {
			t.Errorf("Expected transaction ID %s, got %s", want.Buys[0].ID, got.Buys[0].ID)
		}
		if !got.Buys[0].Date.Equal(want.Buys[0].Date) {
			t.Errorf("Expected date %v, got %v", want.Buys[0].Date, got.Buys[0].Date)
		}
	})

	t.Run("returns not found for unknown symbol", func(t *testing.T) {
		_, err := repo.GetInstrument(context.Background(), "NOPE")
		if !errors.Is(err, apperrors.ErrInstrumentNotFound) {
			t.Errorf("Expected ErrInstrumentNotFound, got %v", err)
		}
	})
}

func TestInstrumentRepository_CreateInstrument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInstrumentRepository(db)

	inst := testutil.NewInstrument().WithSymbol("AAPL").Value()
	if err := repo.CreateInstrument(context.Background(), inst); err != nil {
		t.Fatalf("CreateInstrument() returned unexpected error: %v", err)
	}

	err := repo.CreateInstrument(context.Background(), inst)
	if !errors.Is(err, apperrors.ErrDuplicateInstrument) {
		t.Errorf("Expected ErrDuplicateInstrument, got %v", err)
	}
	testutil.AssertRowCount(t, db, "instrument", 1)
}

func TestInstrumentRepository_SaveInstrument(t *testing.T) {
	t.Run("replaces transaction lists", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		inst := testutil.NewInstrument().
			WithSymbol("AAPL").
			WithBuy("2024-01-10", "150", 10).
			WithBuy("2024-02-10", "160", 10).
			Build(t, db)

		inst.Buys = inst.Buys[1:]
		inst.Sells = append(inst.Sells, testutil.NewTransaction(model.TransactionSell, "2024-03-01", "170", 5))
		inst.Name = "Apple Inc."

		if err := repo.SaveInstrument(context.Background(), inst); err != nil {
			t.Fatalf("SaveInstrument() returned unexpected error: %v", err)
		}

		got, err := repo.GetInstrument(context.Background(), "AAPL")
		if err != nil {
			t.Fatalf("GetInstrument() returned unexpected error: %v", err)
		}
		if got.Name != "Apple Inc." {
			t.Errorf("Expected updated name, got %s", got.Name)
		}
		if len(got.Buys) != 1 || !got.Buys[0].Price.Equal(decimal.NewFromInt(160)) {
			t.Errorf("Unexpected buys after save: %+v", got.Buys)
		}
		if len(got.Sells) != 1 {
			t.Errorf("Expected 1 sell, got %d", len(got.Sells))
		}
		testutil.AssertRowCount(t, db, "ledger_transaction", 2)
	})

	t.Run("inserts unknown instrument", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		inst := testutil.NewInstrument().WithSymbol("NEW").WithBuy("2024-01-10", "10", 1).Value()
		if err := repo.SaveInstrument(context.Background(), inst); err != nil {
			t.Fatalf("SaveInstrument() returned unexpected error: %v", err)
		}
		testutil.AssertRowCount(t, db, "instrument", 1)
		testutil.AssertRowCount(t, db, "ledger_transaction", 1)
	})
}

func TestInstrumentRepository_DeleteInstrument(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewInstrumentRepository(db)
	testutil.CreateHolding(t, db, "AAPL", "150", 10)
	testutil.CreateHolding(t, db, "MSFT", "400", 2)

	if err := repo.DeleteInstrument(context.Background(), "AAPL"); err != nil {
		t.Fatalf("DeleteInstrument() returned unexpected error: %v", err)
	}

	testutil.AssertRowCount(t, db, "instrument", 1)
	testutil.AssertRowCount(t, db, "ledger_transaction", 1)

	err := repo.DeleteInstrument(context.Background(), "AAPL")
	if !errors.Is(err, apperrors.ErrInstrumentNotFound) {
		t.Errorf("Expected ErrInstrumentNotFound, got %v", err)
	}
}

func TestInstrumentRepository_SaveInstruments(t *testing.T) {
	t.Run("replaces the whole ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		testutil.CreateHolding(t, db, "OLD", "10", 1)

		replacement := []model.Instrument{
			testutil.NewInstrument().WithSymbol("AAPL").WithBuy("2024-01-10", "150", 10).Value(),
			testutil.NewInstrument().WithSymbol("MSFT").Value(),
		}
		if err := repo.SaveInstruments(context.Background(), replacement); err != nil {
			t.Fatalf("SaveInstruments() returned unexpected error: %v", err)
		}

		symbols, err := repo.Symbols(context.Background())
		if err != nil {
			t.Fatalf("Symbols() returned unexpected error: %v", err)
		}
		if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
			t.Errorf("Unexpected symbols %v", symbols)
		}
		testutil.AssertRowCount(t, db, "ledger_transaction", 1)
	})

	t.Run("refuses empty snapshot over existing data", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		testutil.CreateHolding(t, db, "AAPL", "150", 10)

		err := repo.SaveInstruments(context.Background(), []model.Instrument{})
		if !errors.Is(err, apperrors.ErrEmptySnapshot) {
			t.Errorf("Expected ErrEmptySnapshot, got %v", err)
		}
		testutil.AssertRowCount(t, db, "instrument", 1)
		testutil.AssertRowCount(t, db, "ledger_transaction", 1)
	})

	t.Run("accepts empty snapshot over empty ledger", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)

		if err := repo.SaveInstruments(context.Background(), nil); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewInstrumentRepository(db)
		testutil.CreateHolding(t, db, "AAPL", "150", 10)

		dup := testutil.NewInstrument().WithSymbol("X").WithBuy("2024-01-10", "1", 1).Value()
		dup.Sells = []model.Transaction{dup.Buys[0]}
		dup.Sells[0].Type = model.TransactionSell
		// same transaction ID twice violates the primary key
		err := repo.SaveInstruments(context.Background(), []model.Instrument{dup})
		if err == nil {
			t.Fatal("Expected error for duplicate transaction ID")
		}

		if _, err := repo.GetInstrument(context.Background(), "AAPL"); err != nil {
			t.Errorf("Expected original ledger to survive, got %v", err)
		}
	})
}
