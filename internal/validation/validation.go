package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/apperrors"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/model"
)

const maxSymbolLength = 32

// Tickers such as AAPL, 005930.KS, BRK-B, ^GSPC and EURUSD=X.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]*$`)

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol checks that symbol, after normalization, looks like an exchange ticker.
func ValidateSymbol(symbol string) error {
	s := NormalizeSymbol(symbol)
	if s == "" {
		return fmt.Errorf("%w: symbol is required", apperrors.ErrInvalidSymbol)
	}
	if len(s) > maxSymbolLength {
		return fmt.Errorf("%w: symbol must be %d characters or less", apperrors.ErrInvalidSymbol, maxSymbolLength)
	}
	if !symbolPattern.MatchString(s) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidSymbol, symbol)
	}
	return nil
}

// ParseTransactionKind parses the buy/sell path segment.
func ParseTransactionKind(kind string) (model.TransactionType, error) {
	switch model.TransactionType(strings.ToLower(kind)) {
	case model.TransactionBuy:
		return model.TransactionBuy, nil
	case model.TransactionSell:
		return model.TransactionSell, nil
	default:
		return "", fmt.Errorf("%w: %s", apperrors.ErrInvalidTransactionKind, kind)
	}
}

// ParseIndex parses a zero-based transaction index path segment.
func ParseIndex(index string) (int, error) {
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrInvalidIndex, index)
	}
	return i, nil
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format and returns it in UTC.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", str)
		}
	}
	return returnTime.UTC(), nil
}
