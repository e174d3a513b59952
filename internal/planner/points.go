package planner

import "fmt"

// Eligible reports whether an order earns points. Under BasisOrderTotal the order
// total must reach the threshold, under BasisCash the cash paid must; in both
// cases the cash paid must also reach MinCashForPoints.
func (p Params) Eligible(orderTotal, cashPaid Money) (bool, error) {
	switch p.cfg.Basis {
	case BasisOrderTotal, BasisCash:
		return p.eligible(orderTotal, cashPaid), nil
	default:
		return false, fmt.Errorf("%w: unknown threshold basis %q", ErrInvalidParams, p.cfg.Basis)
	}
}

func (p Params) eligible(orderTotal, cashPaid Money) bool {
	if cashPaid < p.cfg.MinCashForPoints {
		return false
	}
	switch p.cfg.Basis {
	case BasisOrderTotal:
		return orderTotal >= p.cfg.MinEligibleTotal
	case BasisCash:
		return cashPaid >= p.cfg.MinEligibleTotal
	default:
		return false
	}
}

// PointsEarned returns the points credited for paying cashPaid towards an order
// of orderTotal. Ineligible orders earn nothing.
func (p Params) PointsEarned(cashPaid, orderTotal Money) Money {
	if cashPaid <= 0 || !p.eligible(orderTotal, cashPaid) {
		return 0
	}
	if p.cfg.Rounding == RoundingTaxExFloorThenRate {
		taxEx := cashPaid * 100 / (100 + p.cfg.TaxRatePct)
		return taxEx * p.cfg.PointRatePct / 100
	}
	return cashPaid * p.num / p.den
}

// EndingPoints returns the balance after an order that starts with startPoints
// and redeems orderTotal-cashPaid points. For fixed startPoints and orderTotal
// it is non-decreasing in cashPaid; the cash candidate search relies on that.
func (p Params) EndingPoints(startPoints, cashPaid, orderTotal Money) Money {
	return startPoints - (orderTotal - cashPaid) + p.PointsEarned(cashPaid, orderTotal)
}
