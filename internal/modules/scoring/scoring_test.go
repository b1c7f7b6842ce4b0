package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/finlens/internal/domain"
)

func TestParseModel(t *testing.T) {
	m, err := ParseModel(" FScore ")
	require.NoError(t, err)
	assert.Equal(t, ModelFScore, m)

	_, err = ParseModel("kscore")
	assert.Error(t, err)
}

func TestComputeFScore(t *testing.T) {
	s := threeYears()

	t.Run("improving year scores 9", func(t *testing.T) {
		res, err := ComputeFScore(1, s)
		require.NoError(t, err)
		assert.Equal(t, 9.0, res.Score)
		assert.Equal(t, "strong", res.Classification)
		assert.Len(t, res.Components, 9)
	})

	t.Run("deteriorating year scores 1", func(t *testing.T) {
		res, err := ComputeFScore(2, s)
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Score)
		assert.Equal(t, 1.0, res.Components[SignalCFOExceedsROA])
		assert.Equal(t, "weak", res.Classification)
	})

	t.Run("first year has no prior", func(t *testing.T) {
		_, err := ComputeFScore(0, s)
		assert.True(t, errors.Is(err, domain.ErrInsufficientData))
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := ComputeFScore(5, s)
		assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))
	})
}

func TestFScoreBounds(t *testing.T) {
	s := threeYears()
	for i := 1; i < s.Len(); i++ {
		res, err := ComputeFScore(i, s)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 9.0)

		total := 0.0
		for _, v := range res.Components {
			assert.Contains(t, []float64{0, 1}, v)
			total += v
		}
		assert.Equal(t, res.Score, total)
	}
}

func TestClassifyFScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "weak"}, {3, "weak"}, {4, "moderate"}, {6, "moderate"}, {7, "strong"}, {9, "strong"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFScore(tt.score), "score %v", tt.score)
	}
}

func TestComputeZScore(t *testing.T) {
	res, err := ComputeZScore(1, threeYears())
	require.NoError(t, err)

	a := (900.0 - 400.0) / 2100.0
	b := 650.0 / 2100.0
	c := 330.0 / 2100.0
	d := 1250.0 / 850.0
	e := 1200.0 / 2100.0
	want := 1.2*a + 1.4*b + 3.3*c + 0.6*d + 1.0*e

	assert.InDelta(t, want, res.Score, 1e-9)
	assert.InDelta(t, d, res.Components[ZEquityLiabilities], 1e-9)
	assert.Equal(t, "grey", res.Classification)
}

func TestClassifyZScore(t *testing.T) {
	tests := []struct {
		z    float64
		want string
	}{
		{-1, "distress"},
		{1.80, "distress"},
		{1.81, "grey"},
		{2.5, "grey"},
		{2.99, "grey"},
		{2.991, "safe"},
		{5, "safe"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyZScore(tt.z), "z %v", tt.z)
	}
}

func TestComputeMScore(t *testing.T) {
	res, err := ComputeMScore(1, threeYears())
	require.NoError(t, err)

	dsri := (160.0 / 1200.0) / (150.0 / 1000.0)
	gmi := (400.0 / 1000.0) / (520.0 / 1200.0)
	aqi := (1 - (900.0+950.0)/2100.0) / (1 - (800.0+900.0)/2000.0)
	sgi := 1200.0 / 1000.0
	depi := (50.0 / 950.0) / (55.0 / 1005.0)
	sgai := (110.0 / 1200.0) / (100.0 / 1000.0)
	tata := (250.0 - 300.0) / 2100.0
	lvgi := (850.0 / 2100.0) / (900.0 / 2000.0)
	want := -4.84 + 0.92*dsri + 0.528*gmi + 0.404*aqi + 0.892*sgi + 0.115*depi - 0.172*sgai + 4.679*tata - 0.327*lvgi

	assert.InDelta(t, want, res.Score, 1e-9)
	assert.InDelta(t, dsri, res.Components[MDSRI], 1e-9)
	assert.InDelta(t, gmi, res.Components[MGMI], 1e-9)
	assert.InDelta(t, tata, res.Components[MTATA], 1e-9)
	assert.Len(t, res.Components, 8)
	assert.Equal(t, "low", res.Classification)
}

func TestClassifyMScore(t *testing.T) {
	assert.Equal(t, "low", ClassifyMScore(-2.5))
	assert.Equal(t, "low", ClassifyMScore(-1.78))
	assert.Equal(t, "elevated", ClassifyMScore(-1.5))
}

func TestComputeDuPont(t *testing.T) {
	s := threeYears()

	t.Run("first year needs no prior", func(t *testing.T) {
		res, err := ComputeDuPont(0, s)
		require.NoError(t, err)
		assert.InDelta(t, 180.0/1100.0, res.Score, 1e-9)
		assert.Empty(t, res.Classification)
	})

	t.Run("basic and extended agree", func(t *testing.T) {
		res, err := ComputeDuPont(1, s)
		require.NoError(t, err)
		assert.InDelta(t, 0.2, res.Score, 1e-9)
		assert.InDelta(t, 250.0/1200.0, res.Components[DuPontNetMargin], 1e-9)
		assert.InDelta(t, 250.0/312.0, res.Components[DuPontTaxBurden], 1e-9)
		assert.InDelta(t, res.Components[DuPontROE], res.Components[DuPontROEExtended], 1e-9)
	})

	t.Run("extended factors dropped without pre-tax profit", func(t *testing.T) {
		items := year2022()
		delete(items, domain.ItemPreTaxProfit)
		res, err := ComputeDuPont(0, buildStatements(map[int]map[string]float64{2022: items}))
		require.NoError(t, err)
		assert.Contains(t, res.Components, DuPontROE)
		assert.NotContains(t, res.Components, DuPontROEExtended)
	})
}

// Assets double over three years while revenue, net profit and equity stay flat.
// Turnover (revenue/assets) falls and the equity multiplier (assets/equity) rises;
// their product with the margin keeps ROE constant.
//
// The documented version of this scenario expects turnover to rise and the
// multiplier to fall. That cannot hold with flat equity and revenue, since both
// ratios are fixed by assets alone, so these assertions follow the arithmetic.
func TestDuPontScenarioA(t *testing.T) {
	base := func(assets float64) map[string]float64 {
		return map[string]float64{
			domain.ItemRevenue:     800,
			domain.ItemNetProfit:   100,
			domain.ItemEquity:      500,
			domain.ItemTotalAssets: assets,
		}
	}
	s := buildStatements(map[int]map[string]float64{
		2021: base(1000),
		2022: base(1500),
		2023: base(2000),
	})

	var turnover, multiplier, roe []float64
	for i := 0; i < s.Len(); i++ {
		res, err := ComputeDuPont(i, s)
		require.NoError(t, err)
		turnover = append(turnover, res.Components[DuPontAssetTurnover])
		multiplier = append(multiplier, res.Components[DuPontEquityMultiple])
		roe = append(roe, res.Score)
	}

	assert.InDeltaSlice(t, []float64{0.8, 800.0 / 1500.0, 0.4}, turnover, 1e-9)
	assert.InDeltaSlice(t, []float64{2, 3, 4}, multiplier, 1e-9)
	assert.InDeltaSlice(t, []float64{0.2, 0.2, 0.2}, roe, 1e-9)
	assert.Greater(t, turnover[0], turnover[2])
	assert.Less(t, multiplier[0], multiplier[2])
}

func TestComputeCScore(t *testing.T) {
	s := threeYears()

	res, err := ComputeCScore(1, s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Score)
	assert.Equal(t, "low", res.Classification)

	res, err = ComputeCScore(2, s)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Score)
	assert.Equal(t, 0.0, res.Components[FlagAccrualsExceedCFO])
	assert.Equal(t, "high", res.Classification)
}

func TestClassifyCScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "low"}, {1, "low"}, {2, "medium"}, {3, "medium"}, {4, "high"}, {5, "high"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyCScore(tt.score))
	}
}

func TestZeroTotalAssetsIsUndefined(t *testing.T) {
	broken := year2022()
	broken[domain.ItemTotalAssets] = 0
	s := buildStatements(map[int]map[string]float64{2021: year2021(), 2022: broken})

	for _, m := range Models {
		t.Run(string(m), func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = m.Func()(1, s)
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDegenerateRatio), "got %v", err)
		})
	}
}

func TestMissingItemDisqualifiesOnlyThatYear(t *testing.T) {
	partial := year2022()
	delete(partial, domain.ItemOperatingCashFlow)
	s := buildStatements(map[int]map[string]float64{2021: year2021(), 2022: partial, 2023: year2023()})

	_, err := ComputeFScore(1, s)
	assert.Equal(t, domain.KindInsufficientData, domain.KindOf(err))

	// 2023 compares with 2022 but only needs 2023's cash flow
	res, err := ComputeFScore(2, s)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Score)

	_, err = ComputeZScore(1, s)
	assert.NoError(t, err)
}

func TestReportedGrossProfitTakesPrecedence(t *testing.T) {
	items := year2022()
	items[domain.ItemGrossProfit] = 600
	s := buildStatements(map[int]map[string]float64{2021: year2021(), 2022: items})

	res, err := ComputeMScore(1, s)
	require.NoError(t, err)
	assert.InDelta(t, (400.0/1000.0)/(600.0/1200.0), res.Components[MGMI], 1e-9)
}

func TestScoreAll(t *testing.T) {
	records := ScoreAll(threeYears())

	// four comparative models on 2022 and 2023, DuPont on all three years
	require.Len(t, records, 4*2+3)

	byModel := map[Model][]int{}
	for _, r := range records {
		byModel[r.Model] = append(byModel[r.Model], r.FiscalYear)
		assert.True(t, r.Defined(), "%s %d: %s", r.Model, r.FiscalYear, r.Reason)
	}
	assert.Equal(t, []int{2022, 2023}, byModel[ModelFScore])
	assert.Equal(t, []int{2021, 2022, 2023}, byModel[ModelDuPont])
}

func TestSeriesKeepsUndefinedYears(t *testing.T) {
	broken := year2023()
	broken[domain.ItemRevenue] = 0
	s := buildStatements(map[int]map[string]float64{2021: year2021(), 2022: year2022(), 2023: broken})

	records := Series(ModelMScore, s)
	require.Len(t, records, 2)

	assert.True(t, records[0].Defined())
	assert.False(t, records[1].Defined())
	assert.Equal(t, 2023, records[1].FiscalYear)
	assert.Equal(t, domain.KindDegenerateRatio, records[1].ErrorKind)
	assert.NotEmpty(t, records[1].Reason)
}

func TestPriorYearMustBeConsecutive(t *testing.T) {
	s := buildStatements(map[int]map[string]float64{2019: year2021(), 2022: year2022()})

	for _, m := range Models {
		t.Run(string(m), func(t *testing.T) {
			records := Series(m, s)
			if !m.NeedsPriorYear() {
				require.Len(t, records, 2)
				assert.True(t, records[1].Defined())
				return
			}
			require.Len(t, records, 1)
			assert.Equal(t, 2022, records[0].FiscalYear)
			assert.False(t, records[0].Defined())
			assert.Equal(t, domain.KindInsufficientData, records[0].ErrorKind)
			assert.Contains(t, records[0].Reason, "2021")
		})
	}
}

func TestQuarterlyPriorPeriod(t *testing.T) {
	quarter := func(year, q int, items map[string]float64) []domain.StatementRow {
		rows := yearRows(year, items)
		for i := range rows {
			rows[i].Quarter = q
		}
		return rows
	}

	tests := []struct {
		name    string
		rows    []domain.StatementRow
		defined bool
	}{
		{
			name:    "Q4 to Q1 crosses the year",
			rows:    append(quarter(2023, 4, year2021()), quarter(2024, 1, year2022())...),
			defined: true,
		},
		{
			name:    "skipped quarter",
			rows:    append(quarter(2023, 3, year2021()), quarter(2024, 1, year2022())...),
			defined: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.NewStatements("FPT", tt.rows)
			require.Equal(t, 2, s.Len())

			records := Series(ModelFScore, s)
			require.Len(t, records, 1)
			assert.Equal(t, domain.Period{Year: 2024, Quarter: 1}, records[0].Period())
			assert.Equal(t, tt.defined, records[0].Defined(), records[0].Reason)
			if !tt.defined {
				assert.Equal(t, domain.KindInsufficientData, records[0].ErrorKind)
			}
		})
	}
}
