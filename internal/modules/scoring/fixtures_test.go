package scoring

import (
	"github.com/aristath/finlens/internal/domain"
)

var incomeItems = map[string]bool{
	domain.ItemRevenue:           true,
	domain.ItemCostOfGoodsSold:   true,
	domain.ItemGrossProfit:       true,
	domain.ItemSellingGeneralAdm: true,
	domain.ItemDepreciation:      true,
	domain.ItemInterestExpense:   true,
	domain.ItemEBIT:              true,
	domain.ItemPreTaxProfit:      true,
	domain.ItemNetProfit:         true,
}

// yearRows splits a flat item map into the three statements of one year
func yearRows(year int, items map[string]float64) []domain.StatementRow {
	income := domain.StatementRow{Kind: domain.IncomeStatement, FiscalYear: year, Items: map[string]float64{}}
	balance := domain.StatementRow{Kind: domain.BalanceSheet, FiscalYear: year, Items: map[string]float64{}}
	cash := domain.StatementRow{Kind: domain.CashFlow, FiscalYear: year, Items: map[string]float64{}}

	for k, v := range items {
		switch {
		case incomeItems[k]:
			income.Items[k] = v
		case k == domain.ItemOperatingCashFlow:
			cash.Items[k] = v
		default:
			balance.Items[k] = v
		}
	}
	return []domain.StatementRow{income, balance, cash}
}

func year2021() map[string]float64 {
	return map[string]float64{
		domain.ItemRevenue:            1000,
		domain.ItemCostOfGoodsSold:    -600,
		domain.ItemSellingGeneralAdm:  -100,
		domain.ItemDepreciation:       -50,
		domain.ItemInterestExpense:    -20,
		domain.ItemEBIT:               250,
		domain.ItemPreTaxProfit:       230,
		domain.ItemNetProfit:          180,
		domain.ItemTotalAssets:        2000,
		domain.ItemCurrentAssets:      800,
		domain.ItemCurrentLiabilities: 400,
		domain.ItemTotalLiabilities:   900,
		domain.ItemEquity:             1100,
		domain.ItemRetainedEarnings:   500,
		domain.ItemReceivables:        150,
		domain.ItemFixedAssets:        900,
		domain.ItemSharesOutstanding:  100,
		domain.ItemOperatingCashFlow:  220,
	}
}

// year2022 improves on every Piotroski signal
func year2022() map[string]float64 {
	return map[string]float64{
		domain.ItemRevenue:            1200,
		domain.ItemCostOfGoodsSold:    -680,
		domain.ItemSellingGeneralAdm:  -110,
		domain.ItemDepreciation:       -55,
		domain.ItemInterestExpense:    -18,
		domain.ItemEBIT:               330,
		domain.ItemPreTaxProfit:       312,
		domain.ItemNetProfit:          250,
		domain.ItemTotalAssets:        2100,
		domain.ItemCurrentAssets:      900,
		domain.ItemCurrentLiabilities: 400,
		domain.ItemTotalLiabilities:   850,
		domain.ItemEquity:             1250,
		domain.ItemRetainedEarnings:   650,
		domain.ItemReceivables:        160,
		domain.ItemFixedAssets:        950,
		domain.ItemSharesOutstanding:  100,
		domain.ItemOperatingCashFlow:  300,
	}
}

// year2023 deteriorates on every signal except cash flow beating ROA
func year2023() map[string]float64 {
	return map[string]float64{
		domain.ItemRevenue:            1100,
		domain.ItemCostOfGoodsSold:    -700,
		domain.ItemSellingGeneralAdm:  -150,
		domain.ItemDepreciation:       -60,
		domain.ItemInterestExpense:    -40,
		domain.ItemEBIT:               -10,
		domain.ItemPreTaxProfit:       -50,
		domain.ItemNetProfit:          -50,
		domain.ItemTotalAssets:        2200,
		domain.ItemCurrentAssets:      700,
		domain.ItemCurrentLiabilities: 500,
		domain.ItemTotalLiabilities:   1300,
		domain.ItemEquity:             900,
		domain.ItemRetainedEarnings:   600,
		domain.ItemReceivables:        250,
		domain.ItemFixedAssets:        1000,
		domain.ItemSharesOutstanding:  120,
		domain.ItemOperatingCashFlow:  -30,
	}
}

func buildStatements(years map[int]map[string]float64) domain.Statements {
	var rows []domain.StatementRow
	for y, items := range years {
		rows = append(rows, yearRows(y, items)...)
	}
	return domain.NewStatements("FPT", rows)
}

func threeYears() domain.Statements {
	return buildStatements(map[int]map[string]float64{
		2021: year2021(),
		2022: year2022(),
		2023: year2023(),
	})
}
