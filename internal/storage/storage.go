package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// MaxDenominations caps the size of a coin set. Every optimal call walks the
// whole set once per sub-amount, so the set size multiplies the cost of each
// request and of the compare endpoint's iteration budget.
const MaxDenominations = 10

var (
	// ErrInvalidDenominations is wrapped by every coin set validation failure.
	ErrInvalidDenominations = errors.New("invalid denominations")
	// ErrNoDenominations reports an empty coin set.
	ErrNoDenominations = fmt.Errorf("%w: at least one coin is required", ErrInvalidDenominations)
	// ErrNonPositiveDenomination reports a coin worth zero or less.
	ErrNonPositiveDenomination = fmt.Errorf("%w: coin values must be positive", ErrInvalidDenominations)
	// ErrTooManyDenominations reports a coin set with more than MaxDenominations distinct coins.
	ErrTooManyDenominations = fmt.Errorf("%w: at most %d distinct coins are allowed", ErrInvalidDenominations, MaxDenominations)
)

var defaultDenominations = []int{1, 2, 5, 10, 25, 50}

// Storage provides access to the coin denominations used for change making.
type Storage interface {
	GetDenominations() ([]int, error)
	SetDenominations(denominations []int) error
}

// MemoryStorage keeps the active coin set in memory, smallest coin first.
type MemoryStorage struct {
	mu            sync.RWMutex
	denominations []int
}

// NewMemoryStorage starts with the default coin set.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{denominations: DefaultDenominations()}
}

// DefaultDenominations returns the 1, 2, 5, 10, 25 and 50 coin set.
func DefaultDenominations() []int {
	return slices.Clone(defaultDenominations)
}

// GetDenominations returns a copy of the active coin set, smallest first.
func (s *MemoryStorage) GetDenominations() ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.denominations), nil
}

// SetDenominations replaces the active coin set. Repeated coins collapse into
// one; the stored set is sorted ascending.
func (s *MemoryStorage) SetDenominations(denominations []int) error {
	coins, err := coinSet(denominations)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.denominations = coins
	s.mu.Unlock()

	return nil
}

func coinSet(denominations []int) ([]int, error) {
	if len(denominations) == 0 {
		return nil, ErrNoDenominations
	}

	for _, d := range denominations {
		if d <= 0 {
			return nil, fmt.Errorf("%w: got %d", ErrNonPositiveDenomination, d)
		}
	}

	coins := slices.Clone(denominations)
	slices.Sort(coins)
	coins = slices.Compact(coins)
	if len(coins) > MaxDenominations {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyDenominations, len(coins))
	}
	return coins, nil
}
