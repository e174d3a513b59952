package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for q := from; q <= to; q++ {
		out = append(out, q)
	}
	return out
}

func TestQuantityCandidates(t *testing.T) {
	p := MustParams(DefaultConfig())

	require.Equal(t, append(seq(1, 12), seq(88, 100)...), p.QuantityCandidates(100))
	require.Equal(t, seq(1, 5), p.QuantityCandidates(5))
	require.Equal(t, seq(1, 25), p.QuantityCandidates(25))
	require.Empty(t, p.QuantityCandidates(0))
}

func TestQuantityCandidatesThresholdWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEligibleTotal = 50000 // 28 items
	p := MustParams(cfg)

	want := append(seq(1, 12), seq(24, 32)...)
	want = append(want, seq(88, 100)...)
	require.Equal(t, want, p.QuantityCandidates(100))
}

func TestQuantityCandidatesExhaustiveBelow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExhaustiveBelow = 40
	p := MustParams(cfg)

	require.Equal(t, seq(1, 30), p.QuantityCandidates(30))
	require.Len(t, p.QuantityCandidates(100), 25)
}

func TestQuantityCandidatesClampWindowsToRemaining(t *testing.T) {
	// windows beyond the validated bounds must still stay proportional to remaining
	p := MustParams(DefaultConfig())
	p.cfg.SmallQuantityMax = math.MaxInt
	p.cfg.ThresholdWindow = 1 << 40
	p.cfg.TailWindow = math.MaxInt

	start := time.Now()
	got := p.QuantityCandidates(20)
	require.Equal(t, seq(1, 20), got)
	require.Less(t, time.Since(start), time.Second)
}

func TestThresholdQuantityNearMaxInt64(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEligibleTotal = math.MaxInt64
	p := MustParams(cfg)

	require.Positive(t, p.thresholdQuantity())
	require.Equal(t, append(seq(1, 12), seq(88, 100)...), p.QuantityCandidates(100))

	cfg.MinEligibleTotal = 0
	require.Zero(t, MustParams(cfg).thresholdQuantity())
	cfg.MinEligibleTotal = 10000
	require.Equal(t, int64(6), MustParams(cfg).thresholdQuantity())
	cfg.MinEligibleTotal = 10800
	require.Equal(t, int64(6), MustParams(cfg).thresholdQuantity())
}

func TestCashCandidatesWithoutPoints(t *testing.T) {
	p := MustParams(DefaultConfig())
	require.Equal(t, []Money{10800}, p.CashCandidates(0, 10800, 0))
}

func TestCashCandidatesFullyCoveredByPoints(t *testing.T) {
	p := MustParams(DefaultConfig())
	require.Equal(t, []Money{0, 1, 10800}, p.CashCandidates(20000, 10800, 0))
}

func TestCashCandidatesContainMinimalCashPerTarget(t *testing.T) {
	cfg := DefaultConfig()
	for _, basis := range []Basis{BasisOrderTotal, BasisCash} {
		cfg.Basis = basis
		p := MustParams(cfg)

		const available, orderTotal, remaining = Money(5000), Money(10800), Money(9000)
		got := p.CashCandidates(available, orderTotal, remaining)

		cashMin := orderTotal - available
		require.Contains(t, got, cashMin)
		require.Contains(t, got, orderTotal)
		require.IsIncreasing(t, got)
		for _, c := range got {
			require.GreaterOrEqual(t, c, cashMin)
			require.LessOrEqual(t, c, orderTotal)
		}

		for _, target := range []Money{remaining, remaining - p.UnitPrice(), 0} {
			first := Money(-1)
			for c := cashMin; c <= orderTotal; c++ {
				if p.EndingPoints(available, c, orderTotal) >= target {
					first = c
					break
				}
			}
			if first < 0 || first == cashMin {
				continue
			}
			require.Contains(t, got, first, "basis %s target %d", basis, target)
		}
	}
}
