// Package backup seals a ledger snapshot into a portable, encrypted file.
//
// A snapshot is encoded with msgpack and wrapped in a fernet token, so a
// backup can only be read and verified with the key it was written with.
package backup

import (
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

// FormatVersion is written into every snapshot.
const FormatVersion = 1

const dateLayout = "2006-01-02"

// Snapshot is the decoded content of a backup.
type Snapshot struct {
	Version     int
	CreatedAt   time.Time
	Instruments []model.Instrument
}

type snapshotRecord struct {
	Version     int                `msgpack:"v"`
	CreatedAt   string             `msgpack:"created_at"`
	Instruments []instrumentRecord `msgpack:"instruments"`
}

type instrumentRecord struct {
	Symbol           string              `msgpack:"symbol"`
	Name             string              `msgpack:"name"`
	Strategy         string              `msgpack:"strategy"`
	WatchDate        string              `msgpack:"watch_date,omitempty"`
	Note             string              `msgpack:"note,omitempty"`
	CapitalBudget    string              `msgpack:"capital_budget"`
	InstallmentCount int                 `msgpack:"installment_count"`
	Buys             []transactionRecord `msgpack:"buys"`
	Sells            []transactionRecord `msgpack:"sells"`
	CreatedAt        string              `msgpack:"created_at"`
	UpdatedAt        string              `msgpack:"updated_at"`
}

type transactionRecord struct {
	ID        string `msgpack:"id"`
	Date      string `msgpack:"date"`
	Price     string `msgpack:"price"`
	Quantity  int64  `msgpack:"quantity"`
	Round     int    `msgpack:"round,omitempty"`
	Note      string `msgpack:"note,omitempty"`
	CreatedAt string `msgpack:"created_at"`
}

// GenerateKey returns a new random key in the encoding BACKUP_KEY expects.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return k.Encode(), nil
}

func decodeKey(key string) (*fernet.Key, error) {
	if key == "" {
		return nil, apperrors.ErrBackupKeyMissing
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, fmt.Errorf("invalid backup key: %w", err)
	}
	return k, nil
}

// Seal encodes instruments and encrypts them with key.
func Seal(instruments []model.Instrument, key string, now time.Time) ([]byte, error) {
	k, err := decodeKey(key)
	if err != nil {
		return nil, err
	}

	rec := snapshotRecord{
		Version:     FormatVersion,
		CreatedAt:   now.UTC().Format(time.RFC3339),
		Instruments: make([]instrumentRecord, 0, len(instruments)),
	}
	for _, inst := range instruments {
		rec.Instruments = append(rec.Instruments, toRecord(inst))
	}

	payload, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	token, err := fernet.EncryptAndSign(payload, k)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt snapshot: %w", err)
	}
	return token, nil
}

// Open verifies and decrypts a backup written by Seal.
// Returns apperrors.ErrBackupInvalid when the token was not produced with key
// or its content does not decode.
func Open(token []byte, key string) (Snapshot, error) {
	k, err := decodeKey(key)
	if err != nil {
		return Snapshot{}, err
	}

	payload := fernet.VerifyAndDecrypt(token, 0, []*fernet.Key{k})
	if payload == nil {
		return Snapshot{}, apperrors.ErrBackupInvalid
	}

	var rec snapshotRecord
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", apperrors.ErrBackupInvalid, err)
	}
	if rec.Version != FormatVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported format version %d", apperrors.ErrBackupInvalid, rec.Version)
	}

	snap := Snapshot{
		Version:     rec.Version,
		Instruments: make([]model.Instrument, 0, len(rec.Instruments)),
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339, rec.CreatedAt)
	for _, r := range rec.Instruments {
		inst, err := fromRecord(r)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: %s: %w", apperrors.ErrBackupInvalid, r.Symbol, err)
		}
		snap.Instruments = append(snap.Instruments, inst)
	}
	return snap, nil
}

func toRecord(inst model.Instrument) instrumentRecord {
	r := instrumentRecord{
		Symbol:           inst.Symbol,
		Name:             inst.Name,
		Strategy:         inst.Strategy,
		Note:             inst.Note,
		CapitalBudget:    inst.CapitalBudget.String(),
		InstallmentCount: inst.InstallmentCount,
		Buys:             toTransactionRecords(inst.Buys),
		Sells:            toTransactionRecords(inst.Sells),
		CreatedAt:        inst.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        inst.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if inst.WatchDate != nil {
		r.WatchDate = inst.WatchDate.Format(dateLayout)
	}
	return r
}

func toTransactionRecords(txs []model.Transaction) []transactionRecord {
	out := make([]transactionRecord, 0, len(txs))
	for _, t := range txs {
		r := transactionRecord{
			ID:        t.ID,
			Price:     t.Price.String(),
			Quantity:  t.Quantity,
			Round:     t.Round,
			Note:      t.Note,
			CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		}
		if !t.Date.IsZero() {
			r.Date = t.Date.Format(dateLayout)
		}
		out = append(out, r)
	}
	return out
}

func fromRecord(r instrumentRecord) (model.Instrument, error) {
	budget, err := decimal.NewFromString(r.CapitalBudget)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("capital budget: %w", err)
	}

	inst := model.Instrument{
		Symbol:           r.Symbol,
		Name:             r.Name,
		Strategy:         r.Strategy,
		Note:             r.Note,
		CapitalBudget:    budget,
		InstallmentCount: r.InstallmentCount,
	}
	inst.CreatedAt, _ = time.Parse(time.RFC3339, r.CreatedAt)
	inst.UpdatedAt, _ = time.Parse(time.RFC3339, r.UpdatedAt)
	if r.WatchDate != "" {
		d, err := time.Parse(dateLayout, r.WatchDate)
		if err != nil {
			return model.Instrument{}, fmt.Errorf("watch date: %w", err)
		}
		inst.WatchDate = &d
	}

	if inst.Buys, err = fromTransactionRecords(r.Buys, model.TransactionBuy); err != nil {
		return model.Instrument{}, err
	}
	if inst.Sells, err = fromTransactionRecords(r.Sells, model.TransactionSell); err != nil {
		return model.Instrument{}, err
	}
	return inst, nil
}

func fromTransactionRecords(records []transactionRecord, kind model.TransactionType) ([]model.Transaction, error) {
	out := make([]model.Transaction, 0, len(records))
	for _, r := range records {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("%s price: %w", kind, err)
		}
		t := model.Transaction{
			ID:       r.ID,
			Type:     kind,
			Price:    price,
			Quantity: r.Quantity,
			Round:    r.Round,
			Note:     r.Note,
		}
		if r.Date != "" {
			if t.Date, err = time.Parse(dateLayout, r.Date); err != nil {
				return nil, fmt.Errorf("%s date: %w", kind, err)
			}
		}
		t.CreatedAt, _ = time.Parse(time.RFC3339, r.CreatedAt)
		out = append(out, t)
	}
	return out, nil
}
