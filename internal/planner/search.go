package planner

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"
)

// ctxPollInterval is how many queue pops happen between context checks.
const ctxPollInterval = 256

// Request describes one planning problem.
type Request struct {
	Quantity    int   `json:"n"`
	StartPoints Money `json:"startPoints"`
}

type stateKey struct {
	items  int
	points Money
}

type backPointer struct {
	prev       stateKey
	quantity   int
	orderTotal Money
	cashPaid   Money
	redeemed   Money
	earned     Money
}

type queueItem struct {
	cost Money
	key  stateKey
}

// stateQueue orders pending states by cost, then items, then points.
type stateQueue []queueItem

func (q stateQueue) Len() int { return len(q) }

func (q stateQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].key.items != q[j].key.items {
		return q[i].key.items < q[j].key.items
	}
	return q[i].key.points < q[j].key.points
}

func (q stateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *stateQueue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *stateQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// search owns all mutable state of one Solve call.
type search struct {
	params    Params
	n         int
	start     stateKey
	frontiers []Frontier
	best      map[stateKey]Money
	parent    map[stateKey]backPointer
	queue     stateQueue
	// terminals lists every admitted full-quantity state when the objective
	// needs more than the terminal frontier keeps.
	terminals []stateKey

	expanded int
	admitted int
}

func newSearch(params Params, n int, startPoints Money) *search {
	if params.cfg.CapPointsToRemaining {
		startPoints = min(startPoints, Money(n)*params.cfg.UnitPrice)
	}
	s := &search{
		params:    params,
		n:         n,
		start:     stateKey{items: 0, points: startPoints},
		frontiers: make([]Frontier, n+1),
		best:      make(map[stateKey]Money),
		parent:    make(map[stateKey]backPointer),
	}
	s.frontiers[0].Insert(startPoints, 0)
	s.best[s.start] = 0
	heap.Push(&s.queue, queueItem{cost: 0, key: s.start})
	return s
}

// run drains the queue. It returns false when ctx ended before the queue emptied.
func (s *search) run(ctx context.Context) bool {
	pops := 0
	for s.queue.Len() > 0 {
		if pops%ctxPollInterval == 0 && ctx.Err() != nil {
			return false
		}
		pops++
		item := heap.Pop(&s.queue).(queueItem)
		if cost, ok := s.best[item.key]; !ok || cost != item.cost {
			continue
		}
		if item.key.items == s.n {
			continue
		}
		s.expand(item)
	}
	return true
}

func (s *search) expand(item queueItem) {
	s.expanded++
	price := s.params.cfg.UnitPrice
	cur := item.key
	for _, q := range s.params.QuantityCandidates(s.n - cur.items) {
		next := cur.items + q
		orderTotal := Money(q) * price
		remainingTotal := Money(s.n-next) * price
		for _, cash := range s.params.CashCandidates(cur.points, orderTotal, remainingTotal) {
			redeemed := orderTotal - cash
			if redeemed > cur.points {
				continue
			}
			earned := s.params.PointsEarned(cash, orderTotal)
			points := cur.points - redeemed + earned
			if s.params.cfg.CapPointsToRemaining && next < s.n && points > remainingTotal {
				points = remainingTotal
			}
			cost := item.cost + cash

			keepAll := next == s.n && s.params.cfg.Objective == ObjectiveMinOrders
			if !keepAll {
				f := &s.frontiers[next]
				if f.Dominated(points, cost) || !f.Insert(points, cost) {
					continue
				}
			}
			key := stateKey{items: next, points: points}
			if prev, ok := s.best[key]; ok && cost >= prev {
				continue
			}
			if keepAll {
				s.terminals = append(s.terminals, key)
			}
			s.admitted++
			s.best[key] = cost
			s.parent[key] = backPointer{
				prev:       cur,
				quantity:   q,
				orderTotal: orderTotal,
				cashPaid:   cash,
				redeemed:   redeemed,
				earned:     earned,
			}
			heap.Push(&s.queue, queueItem{cost: cost, key: key})
		}
	}
}

// Solve plans the purchase of req.Quantity items under params, minimising total
// cash and breaking ties by the configured Objective: by default the plan
// keeping the most leftover points.
//
// When ctx ends mid-search and some plan already reached the full quantity, the
// best such plan is returned with Meta.Exact set to false.
func Solve(ctx context.Context, params Params, req Request) (*Result, error) {
	if !params.valid() {
		return nil, fmt.Errorf("%w: params not constructed with NewParams", ErrInvalidParams)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, req.Quantity)
	}
	if req.StartPoints < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStartPoints, req.StartPoints)
	}
	if err := checkRange(params, req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planner: search not started: %w", err)
	}

	started := time.Now()
	s := newSearch(params, req.Quantity, req.StartPoints)
	exact := s.run(ctx)

	terminal, ok := s.pickTerminal()
	if !ok {
		if !exact {
			return nil, fmt.Errorf("planner: search interrupted before any plan completed: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: terminal frontier empty for quantity %d", ErrNoFeasiblePlan, req.Quantity)
	}

	steps, err := s.backtrack(terminal)
	if err != nil {
		return nil, err
	}
	res, err := replay(params, steps, req.StartPoints)
	if err != nil {
		return nil, err
	}
	if params.cfg.Consolidate {
		res = consolidate(params, res, req.StartPoints)
	}
	res.Summary.GrossTotal = Money(req.Quantity) * params.cfg.UnitPrice
	res.Summary.Savings = res.Summary.GrossTotal - res.Summary.CashTotal
	res.Meta = Meta{
		Exact:          exact,
		Heuristic:      true,
		StatesExpanded: s.expanded,
		StatesAdmitted: s.admitted,
		Elapsed:        time.Since(started),
	}
	return res, nil
}

// pickTerminal selects the full-quantity state to reconstruct. Every objective
// pays the least cash first; ties go to the most leftover points, or under
// ObjectiveMinOrders to the shortest back-pointer chain and then the most points.
func (s *search) pickTerminal() (stateKey, bool) {
	if s.params.cfg.Objective != ObjectiveMinOrders {
		best, ok := s.frontiers[s.n].Best()
		return stateKey{items: s.n, points: best.Points}, ok
	}

	var (
		pick   stateKey
		cost   Money
		orders int
		found  bool
	)
	for _, key := range s.terminals {
		c := s.best[key]
		n := s.chainLength(key)
		better := !found || c < cost ||
			(c == cost && (n < orders || (n == orders && key.points > pick.points)))
		if better {
			pick, cost, orders, found = key, c, n, true
		}
	}
	return pick, found
}

// chainLength counts back-pointer steps from key to the start state.
func (s *search) chainLength(key stateKey) int {
	n := 0
	for key != s.start && n <= s.n {
		bp, ok := s.parent[key]
		if !ok {
			break
		}
		key = bp.prev
		n++
	}
	return n
}

// checkRange rejects requests whose largest intermediate product, the full
// gross total times the earn ratio numerator, would not fit in an int64.
func checkRange(params Params, req Request) error {
	gross := params.cfg.UnitPrice
	if Money(req.Quantity) > math.MaxInt64/gross {
		return fmt.Errorf("%w: gross total of %d items", ErrAmountOverflow, req.Quantity)
	}
	gross *= Money(req.Quantity)
	factor := max(params.num, 100, params.cfg.PointRatePct)
	if gross > math.MaxInt64/factor || req.StartPoints > math.MaxInt64/2-gross {
		return fmt.Errorf("%w: gross total %d", ErrAmountOverflow, gross)
	}
	return nil
}
