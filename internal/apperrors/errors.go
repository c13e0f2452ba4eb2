package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrInstrumentNotFound indicates that no instrument is registered under the given symbol.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrTransactionNotFound indicates that a transaction index is out of range
	// for the instrument's buy or sell list.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSymbolNotFound indicates that a market data lookup returned no results.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrDuplicateInstrument indicates that an instrument with the same symbol already exists.
	ErrDuplicateInstrument = errors.New("instrument already exists")

	// ErrEmptySnapshot indicates an attempt to replace a non-empty ledger with an empty one.
	ErrEmptySnapshot = errors.New("refusing to overwrite non-empty ledger with an empty snapshot")

	// ErrInvalidSymbol indicates that a symbol is empty or contains characters
	// no exchange ticker uses.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrInvalidTransactionKind indicates a transaction kind other than buy or sell.
	ErrInvalidTransactionKind = errors.New("transaction kind must be buy or sell")

	// ErrInvalidIndex indicates a transaction index that is not a non-negative integer.
	ErrInvalidIndex = errors.New("invalid transaction index")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToRetrieveInstruments = errors.New("failed to retrieve instruments")
	ErrFailedToSaveInstrument      = errors.New("failed to save instrument")
	ErrFailedToGetPortfolioSummary = errors.New("failed to get portfolio summary")
	ErrFailedToGetVersionInfo      = errors.New("failed to get version information")

	// ErrRateLimited indicates that the market data provider kept answering
	// HTTP 429 after all retries.
	ErrRateLimited = errors.New("market data provider rate limited")

	// ErrBackupKeyMissing indicates that export or import was requested without BACKUP_KEY.
	ErrBackupKeyMissing = errors.New("backup key is not configured")

	// ErrBackupInvalid indicates a backup that cannot be decrypted with the
	// configured key or does not decode.
	ErrBackupInvalid = errors.New("backup could not be decrypted")
)
