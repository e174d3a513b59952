// Package planner computes minimum-cash purchase plans for a fixed number of
// identical items bought over several orders, where a loyalty points balance
// can be redeemed against each order and new points are only earned by orders
// that meet an eligibility threshold.
//
// The search runs over (items acquired, points balance) states ordered by
// cumulative cash, keeps one Pareto frontier of (points, cost) pairs per item
// count, and only expands a bounded set of candidate quantities and cash
// payments per state. The candidate sets are a heuristic cover: results are
// optimal among the plans the generator can express, which is reported in
// Meta.Heuristic.
package planner
