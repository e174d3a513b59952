package planner

import (
	"fmt"
	"slices"
)

// backtrack follows back-pointers from terminal to the start state and returns
// the steps in chronological order.
func (s *search) backtrack(terminal stateKey) ([]backPointer, error) {
	var steps []backPointer
	for key := terminal; key != s.start; {
		bp, ok := s.parent[key]
		if !ok {
			return nil, fmt.Errorf("%w: no back-pointer for state (%d, %d)", ErrInconsistentPlan, key.items, key.points)
		}
		if len(steps) >= s.n {
			return nil, fmt.Errorf("%w: back-pointer chain longer than %d steps", ErrInconsistentPlan, s.n)
		}
		steps = append(steps, bp)
		key = bp.prev
	}
	slices.Reverse(steps)
	return steps, nil
}

// replay re-simulates steps from startPoints, attaching the running balance.
// Earned points must match what the search recorded.
func replay(params Params, steps []backPointer, startPoints Money) (*Result, error) {
	res := &Result{Transactions: make([]Transaction, 0, len(steps))}
	balance := startPoints
	for i, step := range steps {
		if step.redeemed > balance {
			return nil, fmt.Errorf("%w: order %d redeems %d with %d available", ErrInconsistentPlan, i+1, step.redeemed, balance)
		}
		earned := params.PointsEarned(step.cashPaid, step.orderTotal)
		if earned != step.earned {
			return nil, fmt.Errorf("%w: order %d earned %d on replay, %d during search", ErrInconsistentPlan, i+1, earned, step.earned)
		}
		balance = balance - step.redeemed + earned
		res.Transactions = append(res.Transactions, Transaction{
			Index:          i + 1,
			Quantity:       step.quantity,
			OrderTotal:     step.orderTotal,
			PointsRedeemed: step.redeemed,
			CashPaid:       step.cashPaid,
			PointsEarned:   earned,
			PointsBalance:  balance,
			Eligible:       params.eligible(step.orderTotal, step.cashPaid),
		})
		res.Summary.CashTotal += step.cashPaid
	}
	res.Summary.OrderCount = len(res.Transactions)
	res.Summary.LeftoverPoints = balance
	return res, nil
}

// consolidate merges runs of consecutive eligible orders that redeem no points
// into single orders and replays the result. Cash is unchanged and, because
// floor is superadditive, earned points never decrease.
func consolidate(params Params, res *Result, startPoints Money) *Result {
	txs := res.Transactions
	if len(txs) <= 1 {
		return res
	}
	merged := make([]backPointer, 0, len(txs))
	for i := 0; i < len(txs); {
		tx := txs[i]
		step := backPointer{quantity: tx.Quantity, orderTotal: tx.OrderTotal, cashPaid: tx.CashPaid, redeemed: tx.PointsRedeemed}
		j := i + 1
		if tx.PointsRedeemed == 0 && tx.Eligible {
			for j < len(txs) && txs[j].PointsRedeemed == 0 && txs[j].Eligible {
				step.quantity += txs[j].Quantity
				step.orderTotal += txs[j].OrderTotal
				step.cashPaid += txs[j].CashPaid
				j++
			}
		}
		step.earned = params.PointsEarned(step.cashPaid, step.orderTotal)
		merged = append(merged, step)
		i = j
	}
	if len(merged) == len(txs) {
		return res
	}
	out, err := replay(params, merged, startPoints)
	if err != nil {
		return res
	}
	return out
}
