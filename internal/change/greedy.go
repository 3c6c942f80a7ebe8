package change

// GreedyName identifies the greedy algorithm.
const GreedyName = "greedy"

type greedyMaker struct{}

// NewGreedy creates a Maker that takes as many of each denomination as fit,
// visiting denominations in the order given. The input is not sorted; pass
// it largest first.
//
// The result is minimal only for canonical denomination sets. When the
// remaining amount cannot be covered by the later denominations the partial
// breakdown is returned as is and the uncovered amount is dropped; callers
// can detect this by comparing Value() with the requested amount.
func NewGreedy() Maker {
	return &greedyMaker{}
}

func (g *greedyMaker) Name() string { return GreedyName }

func (g *greedyMaker) MakeChange(amount int, denominations []int) (Breakdown, error) {
	if err := validate(amount, denominations); err != nil {
		return nil, err
	}

	result := make(Breakdown)
	remaining := amount
	for _, d := range denominations {
		if remaining <= 0 {
			break
		}
		count := remaining / d
		if count > 0 {
			result[d] = count
			remaining -= d * count
		}
	}

	return result, nil
}
