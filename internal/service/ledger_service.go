package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/backup"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/repository"
)

// LedgerService exports and restores the whole ledger as an encrypted backup.
type LedgerService struct {
	instrumentRepo *repository.InstrumentRepository
	key            string
	log            zerolog.Logger
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService. key is the fernet key from
// BACKUP_KEY; with an empty key every call fails with apperrors.ErrBackupKeyMissing.
func NewLedgerService(instrumentRepo *repository.InstrumentRepository, key string, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		instrumentRepo: instrumentRepo,
		key:            key,
		log:            log.With().Str("component", "backup").Logger(),
		now:            time.Now,
	}
}

// ImportResult summarizes a restored backup.
type ImportResult struct {
	Instruments  int       `json:"instruments"`
	Transactions int       `json:"transactions"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Export seals the current ledger.
func (s *LedgerService) Export(ctx context.Context) ([]byte, error) {
	instruments, err := s.instrumentRepo.LoadInstruments(ctx)
	if err != nil {
		return nil, err
	}

	token, err := backup.Seal(instruments, s.key, s.now())
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("instruments", len(instruments)).Msg("ledger exported")
	return token, nil
}

// Import replaces the ledger with the content of a backup. An empty backup
// is refused when the ledger holds data.
func (s *LedgerService) Import(ctx context.Context, token []byte) (ImportResult, error) {
	snap, err := backup.Open(token, s.key)
	if err != nil {
		return ImportResult{}, err
	}

	if err := s.instrumentRepo.SaveInstruments(ctx, snap.Instruments); err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{Instruments: len(snap.Instruments), CreatedAt: snap.CreatedAt}
	for _, inst := range snap.Instruments {
		result.Transactions += len(inst.Buys) + len(inst.Sells)
	}

	s.log.Info().
		Int("instruments", result.Instruments).
		Int("transactions", result.Transactions).
		Time("backup_created_at", snap.CreatedAt).
		Msg("ledger imported")
	return result, nil
}
