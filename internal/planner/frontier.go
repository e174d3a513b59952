package planner

import "sort"

// Entry is one non-dominated (points, cost) pair of a Frontier.
type Entry struct {
	Points Money
	Cost   Money
}

// Frontier is a skyline of (points, cost) pairs for a single item count.
// Entries are sorted by ascending points and costs are strictly increasing
// along that order, so the first entry at or above any points value carries
// the cheapest cost among all entries with at least that many points.
//
// The zero value is an empty frontier ready for use.
type Frontier struct {
	points []Money
	costs  []Money
}

func (f *Frontier) lowerBound(points Money) int {
	return sort.Search(len(f.points), func(i int) bool { return f.points[i] >= points })
}

// Dominated reports whether some entry has at least points and at most cost.
func (f *Frontier) Dominated(points, cost Money) bool {
	idx := f.lowerBound(points)
	return idx < len(f.points) && f.costs[idx] <= cost
}

// Insert adds (points, cost) unless it is dominated, then drops entries with
// fewer points whose cost is not lower. It reports whether the frontier changed.
func (f *Frontier) Insert(points, cost Money) bool {
	idx := f.lowerBound(points)
	switch {
	case idx < len(f.points) && f.points[idx] == points:
		if f.costs[idx] <= cost {
			return false
		}
		f.costs[idx] = cost
	case idx < len(f.points) && f.costs[idx] <= cost:
		return false
	default:
		f.points = append(f.points, 0)
		f.costs = append(f.costs, 0)
		copy(f.points[idx+1:], f.points[idx:])
		copy(f.costs[idx+1:], f.costs[idx:])
		f.points[idx] = points
		f.costs[idx] = cost
	}

	start := idx
	for start > 0 && f.costs[start-1] >= cost {
		start--
	}
	if start < idx {
		f.points = append(f.points[:start], f.points[idx:]...)
		f.costs = append(f.costs[:start], f.costs[idx:]...)
	}
	return true
}

// Len returns the number of entries.
func (f *Frontier) Len() int { return len(f.points) }

// Entries returns a copy of the entries in ascending points order.
func (f *Frontier) Entries() []Entry {
	out := make([]Entry, len(f.points))
	for i := range f.points {
		out[i] = Entry{Points: f.points[i], Cost: f.costs[i]}
	}
	return out
}

// Best returns the cheapest entry, preferring more points on equal cost.
func (f *Frontier) Best() (Entry, bool) {
	if len(f.points) == 0 {
		return Entry{}, false
	}
	best := Entry{Points: f.points[0], Cost: f.costs[0]}
	for i := 1; i < len(f.points); i++ {
		c := f.costs[i]
		if c < best.Cost || (c == best.Cost && f.points[i] > best.Points) {
			best = Entry{Points: f.points[i], Cost: c}
		}
	}
	return best, true
}
