package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewParamsDefaults(t *testing.T) {
	p, err := NewParams(DefaultConfig())
	require.NoError(t, err)

	num, den := p.EarnRatio()
	require.Equal(t, int64(2), num)
	require.Equal(t, int64(11), den)
	require.Equal(t, Money(1800), p.UnitPrice())
	require.Equal(t, BasisOrderTotal, p.Basis())
}

func TestNewParamsRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown basis":       func(c *Config) { c.Basis = "receipt" },
		"empty basis":         func(c *Config) { c.Basis = "" },
		"zero unit price":     func(c *Config) { c.UnitPrice = 0 },
		"tax at 100":          func(c *Config) { c.TaxRatePct = 100 },
		"negative tax":        func(c *Config) { c.TaxRatePct = -1 },
		"negative rate":       func(c *Config) { c.PointRatePct = -5 },
		"negative threshold":  func(c *Config) { c.MinEligibleTotal = -1 },
		"negative cash floor": func(c *Config) { c.MinCashForPoints = -1 },
		"unknown rounding":    func(c *Config) { c.Rounding = "bankers" },
		"zero tail window":    func(c *Config) { c.TailWindow = 0 },
		"zero small max":      func(c *Config) { c.SmallQuantityMax = 0 },
		"huge small max":      func(c *Config) { c.SmallQuantityMax = math.MaxInt },
		"huge window":         func(c *Config) { c.ThresholdWindow = 1 << 40 },
		"huge tail window":    func(c *Config) { c.TailWindow = 1001 },
		"huge exhaustive":     func(c *Config) { c.ExhaustiveBelow = 1 << 33 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := NewParams(cfg)
			require.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestEligibleUnknownBasis(t *testing.T) {
	_, err := Params{}.Eligible(10000, 10000)
	require.ErrorIs(t, err, ErrInvalidParams)
}

func TestPointsEarnedSingleEligibleOrder(t *testing.T) {
	p := MustParams(DefaultConfig())

	ok, err := p.Eligible(10800, 10800)
	require.NoError(t, err)
	require.True(t, ok)
	// floor(10800 * 20 / 110) = floor(1963.63...)
	require.Equal(t, Money(1963), p.PointsEarned(10800, 10800))
}

func TestPointsEarnedBelowThresholdIsZero(t *testing.T) {
	p := MustParams(DefaultConfig())
	for cash := Money(0); cash <= 1800; cash += 100 {
		require.Zero(t, p.PointsEarned(cash, 1800))
	}
}

func TestPointsEarnedThresholdBoundaries(t *testing.T) {
	t.Run("order total basis", func(t *testing.T) {
		p := MustParams(DefaultConfig())
		require.Zero(t, p.PointsEarned(9999, 9999))
		require.Equal(t, Money(1818), p.PointsEarned(10000, 10000))
		require.Equal(t, Money(1818), p.PointsEarned(10001, 10001))
		// the order total qualifies even when most of it is paid with points
		require.Equal(t, Money(90), p.PointsEarned(500, 10000))
	})

	t.Run("cash basis", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Basis = BasisCash
		p := MustParams(cfg)
		require.Zero(t, p.PointsEarned(9999, 20000))
		require.Equal(t, Money(1818), p.PointsEarned(10000, 20000))
		require.Equal(t, Money(1818), p.PointsEarned(10001, 20000))
	})

	t.Run("secondary cash floor", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MinCashForPoints = 5000
		p := MustParams(cfg)
		require.Zero(t, p.PointsEarned(4999, 10800))
		require.Equal(t, Money(909), p.PointsEarned(5000, 10800))
		require.Equal(t, Money(909), p.PointsEarned(5001, 10800))
	})
}

func TestPointsEarnedMatchesIntegerFormula(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TaxRatePct = 8
	cfg.PointRatePct = 7
	p := MustParams(cfg)
	for cash := Money(10000); cash <= 60000; cash += 37 {
		require.Equal(t, cash*7/108, p.PointsEarned(cash, cash), "cash %d", cash)
	}
}

func TestPointsEarnedRoundingModes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PointRatePct = 3
	cfg.MinEligibleTotal = 0
	ratio := MustParams(cfg)

	cfg.Rounding = RoundingTaxExFloorThenRate
	taxEx := MustParams(cfg)

	// 37*3/110 = 1.009; floor(3700/110) = 33, 33*3/100 = 0.99
	require.Equal(t, Money(1), ratio.PointsEarned(37, 37))
	require.Equal(t, Money(0), taxEx.PointsEarned(37, 37))
}

func TestEndingPointsMonotonicInCash(t *testing.T) {
	configs := map[string]Config{}
	base := DefaultConfig()
	configs["order total"] = base

	cash := base
	cash.Basis = BasisCash
	configs["cash"] = cash

	floored := base
	floored.MinCashForPoints = 3000
	configs["cash floor"] = floored

	taxEx := base
	taxEx.Rounding = RoundingTaxExFloorThenRate
	taxEx.Basis = BasisCash
	configs["taxex cash"] = taxEx

	for name, cfg := range configs {
		p := MustParams(cfg)
		t.Run(name, func(t *testing.T) {
			for _, start := range []Money{0, 500, 5000, 25000} {
				for _, orderTotal := range []Money{1800, 9000, 10800, 18000} {
					cashMin := max(0, orderTotal-start)
					prev := p.EndingPoints(start, cashMin, orderTotal)
					for c := cashMin + 1; c <= orderTotal; c++ {
						cur := p.EndingPoints(start, c, orderTotal)
						require.GreaterOrEqual(t, cur, prev, "start=%d total=%d cash=%d", start, orderTotal, c)
						prev = cur
					}
				}
			}
		})
	}
}
