package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Quarterly data (updates with filings)
	TTLFinancialStatements = 30 * 24 * time.Hour // Annual/quarterly statements
	TTLFundHoldings        = 7 * 24 * time.Hour  // Funds publish portfolios monthly

	// Daily data
	TTLOwnership = 24 * time.Hour
	TTLValuation = 24 * time.Hour

	// Intraday
	TTLPriceHistory = 4 * time.Hour // Daily closes; refreshed a few times per session
)
