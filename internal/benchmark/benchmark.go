// Package benchmark times the change-making algorithms against each other.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eugenenazirov/coin-change/internal/change"
)

// DefaultIterations matches the number of calls timed per algorithm by default.
const DefaultIterations = 1000

// ErrInvalidIterations is returned when a Runner is asked to time fewer than one call.
var ErrInvalidIterations = errors.New("iterations must be a positive integer")

// Run is the timing and output of a single algorithm for one amount.
type Run struct {
	Algorithm  string
	Breakdown  change.Breakdown
	Iterations int
	Total      time.Duration
}

// PerCall returns the average duration of one invocation.
func (r Run) PerCall() time.Duration {
	if r.Iterations <= 0 {
		return 0
	}
	return r.Total / time.Duration(r.Iterations)
}

// Comparison holds the greedy and optimal runs for the same amount.
type Comparison struct {
	Amount  int
	Greedy  Run
	Optimal Run
}

// GreedyExact reports whether the greedy breakdown covers the full amount.
func (c Comparison) GreedyExact() bool {
	return c.Greedy.Breakdown.Value() == c.Amount
}

// GreedyOptimal reports whether greedy found an exact breakdown with the minimum coin count.
func (c Comparison) GreedyOptimal() bool {
	return c.GreedyExact() && c.Greedy.Breakdown.Coins() == c.Optimal.Breakdown.Coins()
}

// ExtraCoins is how many more coins greedy used than the optimal solution.
// It is zero when greedy is optimal or did not produce an exact breakdown.
func (c Comparison) ExtraCoins() int {
	if !c.GreedyExact() {
		return 0
	}
	return c.Greedy.Breakdown.Coins() - c.Optimal.Breakdown.Coins()
}

// Runner times change makers over a fixed number of iterations.
type Runner struct {
	Greedy     change.Maker
	Optimal    change.Maker
	Iterations int

	now func() time.Time
}

// NewRunner creates a Runner using the greedy and optimal makers. A
// non-positive iteration count falls back to DefaultIterations.
func NewRunner(iterations int) *Runner {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Runner{
		Greedy:     change.NewGreedy(),
		Optimal:    change.NewOptimal(),
		Iterations: iterations,
		now:        time.Now,
	}
}

// Compare runs greedy over the descending ordering and the optimal solver
// over the ascending ordering for the same amount.
func (r *Runner) Compare(ctx context.Context, amount int, descending, ascending []int) (Comparison, error) {
	greedy, err := r.Measure(ctx, r.Greedy, amount, descending)
	if err != nil {
		return Comparison{}, err
	}
	optimal, err := r.Measure(ctx, r.Optimal, amount, ascending)
	if err != nil {
		return Comparison{}, err
	}
	return Comparison{
		Amount:  amount,
		Greedy:  greedy,
		Optimal: optimal,
	}, nil
}

// Measure invokes maker Iterations times and records the total elapsed time.
// The breakdown of the last call is kept; the makers are deterministic so
// every call yields the same one.
func (r *Runner) Measure(ctx context.Context, maker change.Maker, amount int, denominations []int) (Run, error) {
	if r.Iterations <= 0 {
		return Run{}, ErrInvalidIterations
	}
	now := r.now
	if now == nil {
		now = time.Now
	}

	var (
		result change.Breakdown
		err    error
	)
	start := now()
	for i := 0; i < r.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Run{}, err
		}
		result, err = maker.MakeChange(amount, denominations)
		if err != nil {
			return Run{}, fmt.Errorf("%s: %w", maker.Name(), err)
		}
	}
	elapsed := now().Sub(start)

	return Run{
		Algorithm:  maker.Name(),
		Breakdown:  result,
		Iterations: r.Iterations,
		Total:      elapsed,
	}, nil
}
