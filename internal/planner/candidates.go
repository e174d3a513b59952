package planner

import (
	"slices"
	"sort"
)

// thresholdQuantity is the smallest quantity whose order total reaches the
// eligibility threshold.
func (p Params) thresholdQuantity() int64 {
	if p.cfg.MinEligibleTotal <= 0 {
		return 0
	}
	return (p.cfg.MinEligibleTotal-1)/p.cfg.UnitPrice + 1
}

// QuantityCandidates returns the sorted purchase quantities worth trying when
// remaining items are still to be bought: every quantity up to SmallQuantityMax,
// a window around the smallest eligible quantity, the last TailWindow values
// below remaining, and remaining itself.
func (p Params) QuantityCandidates(remaining int) []int {
	if remaining <= 0 {
		return nil
	}
	if remaining <= p.cfg.ExhaustiveBelow {
		out := make([]int, remaining)
		for i := range out {
			out[i] = i + 1
		}
		return out
	}

	small := min(remaining, p.cfg.SmallQuantityMax)
	tail := min(remaining-1, p.cfg.TailWindow)
	out := make([]int, 0, small+tail+1+remaining)
	for q := 1; q <= small; q++ {
		out = append(out, q)
	}
	// window around the threshold, clamped to [1, remaining]
	if thr := p.thresholdQuantity(); thr <= int64(remaining)+int64(p.cfg.ThresholdWindow) {
		w := int64(p.cfg.ThresholdWindow)
		lo := max(thr-w, 1)
		hi := min(thr+w, int64(remaining))
		for q := lo; q <= hi; q++ {
			out = append(out, int(q))
		}
	}
	for k := 0; k <= tail; k++ {
		out = append(out, remaining-k)
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// CashCandidates returns the sorted cash amounts worth trying for an order of
// orderTotal paid with available points on hand, when remainingTotal is still
// to be bought afterwards. It always includes paying the least and the most
// cash, and for each target balance (remainingTotal, remainingTotal minus one
// item, zero) the smallest cash reaching it plus its neighbours.
func (p Params) CashCandidates(available, orderTotal, remainingTotal Money) []Money {
	cashMin := orderTotal - min(max(available, 0), orderTotal)
	cashMax := orderTotal

	out := []Money{cashMin, cashMax}
	add := func(c Money) {
		if c >= cashMin && c <= cashMax {
			out = append(out, c)
		}
	}

	targets := []Money{remainingTotal, 0}
	if rest := remainingTotal - p.cfg.UnitPrice; rest >= 0 {
		targets = append(targets, rest)
	}
	for _, target := range targets {
		if p.EndingPoints(available, cashMin, orderTotal) >= target {
			add(cashMin + 1)
			continue
		}
		if p.EndingPoints(available, cashMax, orderTotal) < target {
			continue
		}
		lo := p.minCashReaching(available, orderTotal, cashMin, cashMax, target)
		add(lo - 1)
		add(lo)
		add(lo + 1)
	}

	slices.Sort(out)
	return slices.Compact(out)
}

// minCashReaching binary-searches [cashMin, cashMax] for the smallest cash whose
// ending balance reaches target. The caller guarantees cashMax reaches it.
func (p Params) minCashReaching(available, orderTotal, cashMin, cashMax, target Money) Money {
	span := int(cashMax - cashMin + 1)
	i := sort.Search(span, func(i int) bool {
		return p.EndingPoints(available, cashMin+Money(i), orderTotal) >= target
	})
	return cashMin + Money(i)
}
