package utils

import (
	"strings"

	"github.com/aristath/finlens/internal/domain"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseSymbols parses a comma-separated ticker list such as "fpt, VNM,hpg".
// Tickers are normalized and duplicates dropped, keeping first-seen order.
func ParseSymbols(s string) []string {
	values := ParseCSV(s)
	if values == nil {
		return nil
	}

	seen := make(map[string]bool, len(values))
	symbols := make([]string, 0, len(values))
	for _, v := range values {
		symbol := domain.NormalizeSymbol(v)
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	return symbols
}
