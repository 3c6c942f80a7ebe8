package change

import (
	"slices"
	"sort"
)

// Breakdown maps a denomination to the number of coins of that denomination.
type Breakdown map[int]int

// Coins returns the total number of coins in the breakdown.
func (b Breakdown) Coins() int {
	total := 0
	for _, count := range b {
		total += count
	}
	return total
}

// Value returns the amount the breakdown represents.
func (b Breakdown) Value() int {
	total := 0
	for d, count := range b {
		total += d * count
	}
	return total
}

// Denominations returns the denominations used, largest first.
func (b Breakdown) Denominations() []int {
	out := make([]int, 0, len(b))
	for d := range b {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Maker describes a change-making algorithm.
type Maker interface {
	Name() string
	MakeChange(amount int, denominations []int) (Breakdown, error)
}

// Ascending returns a sorted copy of denominations, smallest first.
func Ascending(denominations []int) []int {
	out := slices.Clone(denominations)
	sort.Ints(out)
	return out
}

// Descending returns a sorted copy of denominations, largest first.
// GreedyMaker expects its input in this order.
func Descending(denominations []int) []int {
	out := slices.Clone(denominations)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
