package change

const (
	// OptimalName identifies the dynamic programming algorithm.
	OptimalName = "optimal"

	// MaxOptimalAmount bounds the size of the tables allocated by the optimal solver.
	MaxOptimalAmount = 1 << 24
)

type dpMaker struct{}

// NewOptimal creates a Maker based on dynamic programming that returns a
// breakdown with the minimum total number of coins. When no combination of
// denominations sums exactly to the amount the breakdown is empty.
//
// When several denominations give the same count for a sub-amount, the one
// that appears first in the input wins.
func NewOptimal() Maker {
	return &dpMaker{}
}

func (c *dpMaker) Name() string { return OptimalName }

func (c *dpMaker) MakeChange(amount int, denominations []int) (Breakdown, error) {
	if err := validate(amount, denominations); err != nil {
		return nil, err
	}
	if amount > MaxOptimalAmount {
		return nil, ErrAmountTooLarge
	}
	if amount == 0 {
		return Breakdown{}, nil
	}

	// No exact solution uses more than amount coins.
	unreachable := amount + 1
	minCoins := make([]int, amount+1)
	lastCoin := make([]int, amount+1)
	for s := 1; s <= amount; s++ {
		minCoins[s] = unreachable
	}

	for s := 1; s <= amount; s++ {
		for _, d := range denominations {
			if s >= d && minCoins[s-d]+1 < minCoins[s] {
				minCoins[s] = minCoins[s-d] + 1
				lastCoin[s] = d
			}
		}
	}

	if minCoins[amount] == unreachable {
		return Breakdown{}, nil
	}

	result := make(Breakdown, len(denominations))
	for current := amount; current > 0; {
		d := lastCoin[current]
		result[d]++
		current -= d
	}

	return result, nil
}
