package planner

import "time"

// Transaction is one order of a plan.
type Transaction struct {
	Index          int   `json:"index"`
	Quantity       int   `json:"qty"`
	OrderTotal     Money `json:"orderTotal"`
	PointsRedeemed Money `json:"pointsUsed"`
	CashPaid       Money `json:"cashPaid"`
	PointsEarned   Money `json:"pointsEarned"`
	PointsBalance  Money `json:"pointsBalance"`
	Eligible       bool  `json:"eligible"`
}

// Summary aggregates a plan.
type Summary struct {
	OrderCount     int   `json:"orderCount"`
	CashTotal      Money `json:"cashTotal"`
	LeftoverPoints Money `json:"leftoverPoints"`
	GrossTotal     Money `json:"grossTotal"`
	Savings        Money `json:"savings"`
}

// Meta describes how the plan was found. Heuristic is always true: the
// candidate generator does not enumerate every quantity and cash split, so
// optimality holds only over the plans it can express.
type Meta struct {
	Exact          bool          `json:"exact"`
	Heuristic      bool          `json:"heuristic"`
	StatesExpanded int           `json:"statesExpanded"`
	StatesAdmitted int           `json:"statesAdmitted"`
	Elapsed        time.Duration `json:"elapsedNs"`
}

// Result is a complete purchase plan.
type Result struct {
	Summary      Summary       `json:"summary"`
	Transactions []Transaction `json:"orders"`
	Meta         Meta          `json:"meta"`
}

// Quantity returns the number of items bought across all transactions.
func (r *Result) Quantity() int {
	total := 0
	for _, tx := range r.Transactions {
		total += tx.Quantity
	}
	return total
}
