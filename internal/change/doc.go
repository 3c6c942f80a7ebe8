// Package change implements two change-making algorithms over a set of coin
// denominations: a greedy largest-coin-first reduction and a dynamic
// programming solver that minimises the total number of coins. Both are pure
// functions; every call allocates its own working state.
package change
