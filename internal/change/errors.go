package change

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is the common cause of every input validation error.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidAmount is returned when the requested amount is negative.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be a non-negative integer", ErrInvalidArgument)
	// ErrInvalidDenominations is returned when denominations are missing or contain non-positive entries.
	ErrInvalidDenominations = fmt.Errorf("%w: denominations must contain at least one positive integer", ErrInvalidArgument)
	// ErrAmountTooLarge is returned when the optimal solver would need tables beyond MaxOptimalAmount.
	ErrAmountTooLarge = fmt.Errorf("%w: amount exceeds %d", ErrInvalidArgument, MaxOptimalAmount)
)

func validate(amount int, denominations []int) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if len(denominations) == 0 {
		return ErrInvalidDenominations
	}
	for _, d := range denominations {
		if d <= 0 {
			return ErrInvalidDenominations
		}
	}
	return nil
}
