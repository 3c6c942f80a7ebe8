package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/eugenenazirov/coin-change/internal/benchmark"
	"github.com/eugenenazirov/coin-change/internal/change"
	"github.com/eugenenazirov/coin-change/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	defaultMaxAmount = 1_000_000
	maxIterations    = 10_000
	// maxCompareWork bounds the table cells a single compare request may touch:
	// iterations × amount × (denominations + 2). The extra two cover filling the
	// count and last-coin tables on every optimal call.
	maxCompareWork = 100_000_000

	outcomeExact       = "exact"
	outcomePartial     = "partial"
	outcomeUnreachable = "unreachable"
	outcomeError       = "error"
)

// Handler wires the change makers and storage dependencies into HTTP handlers.
type Handler struct {
	greedy  change.Maker
	optimal change.Maker
	storage storage.Storage
	metrics *Metrics

	maxAmount  int
	iterations int
	clock      func() time.Time

	mu                     sync.RWMutex
	denominationsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithMetrics records calculation metrics into m.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithMaxAmount sets the largest amount accepted by the API.
func WithMaxAmount(maxAmount int) HandlerOption {
	return func(h *Handler) {
		if maxAmount > 0 {
			h.maxAmount = maxAmount
		}
	}
}

// WithBenchmarkIterations sets the default iteration count for comparisons.
func WithBenchmarkIterations(iterations int) HandlerOption {
	return func(h *Handler) {
		if iterations > 0 {
			h.iterations = iterations
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(greedy, optimal change.Maker, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		greedy:     greedy,
		optimal:    optimal,
		storage:    store,
		maxAmount:  defaultMaxAmount,
		iterations: benchmark.DefaultIterations,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.denominationsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetDenominations(w http.ResponseWriter, r *http.Request) {
	_ = r
	denominations, err := h.storage.GetDenominations()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := denominationsResponse{
		Denominations: denominations,
		UpdatedAt:     h.currentDenominationsUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutDenominations(w http.ResponseWriter, r *http.Request) {
	var req denominationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	if len(req.Denominations) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid denominations", "denominations must contain at least one value")
		return
	}

	if err := h.storage.SetDenominations(req.Denominations); err != nil {
		if errors.Is(err, storage.ErrInvalidDenominations) {
			writeError(w, http.StatusBadRequest, "Invalid denominations", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markDenominationsUpdated()

	denominations, err := h.storage.GetDenominations()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := denominationsResponse{
		Denominations: denominations,
		UpdatedAt:     h.currentDenominationsUpdatedAt(),
		Message:       "Denominations updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChange(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	amount, ok := h.validateAmount(w, req.Amount)
	if !ok {
		return
	}

	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = change.OptimalName
	}
	maker, ok := h.maker(algorithm)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("algorithm must be %q or %q", change.GreedyName, change.OptimalName))
		return
	}

	denominations, err := h.orderedDenominations(algorithm)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	start := time.Now()
	result, calcErr := maker.MakeChange(amount, denominations)
	elapsed := time.Since(start)

	if calcErr != nil {
		h.metrics.ObserveCalculation(algorithm, outcomeError, elapsed)
		if errors.Is(calcErr, change.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "Invalid request", calcErr.Error())
			return
		}
		writeInternalError(w, calcErr)
		return
	}

	outcome := outcomeOf(amount, result)
	h.metrics.ObserveCalculation(algorithm, outcome, elapsed)

	if outcome == outcomeUnreachable {
		suggestion := fmt.Sprintf("Consider adding a denomination of 1 or one that divides %d", amount)
		writeError(w, http.StatusUnprocessableEntity, "Cannot make change exactly",
			fmt.Sprintf("no combination of %v sums to %d", denominations, amount), suggestion)
		return
	}

	resp := changeResponse{
		Algorithm:         algorithm,
		breakdownResponse: newBreakdownResponse(amount, result),
		CalculationTimeUs: micros(elapsed),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	amount, ok := h.validateAmount(w, req.Amount)
	if !ok {
		return
	}

	iterations := h.iterations
	if req.Iterations != 0 {
		if req.Iterations < 0 || req.Iterations > maxIterations {
			writeError(w, http.StatusBadRequest, "Invalid request",
				fmt.Sprintf("iterations must be between 1 and %d", maxIterations))
			return
		}
		iterations = req.Iterations
	}

	ascending, err := h.storage.GetDenominations()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	iterations = clampIterations(iterations, amount, len(ascending))

	runner := benchmark.NewRunner(iterations)
	runner.Greedy = h.greedy
	runner.Optimal = h.optimal

	cmp, err := runner.Compare(r.Context(), amount, change.Descending(ascending), ascending)
	if err != nil {
		switch {
		case errors.Is(err, change.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
		default:
			writeInternalError(w, err)
		}
		return
	}

	h.metrics.ObserveCalculation(cmp.Greedy.Algorithm, outcomeOf(amount, cmp.Greedy.Breakdown), cmp.Greedy.PerCall())
	h.metrics.ObserveCalculation(cmp.Optimal.Algorithm, outcomeOf(amount, cmp.Optimal.Breakdown), cmp.Optimal.PerCall())

	resp := compareResponse{
		Amount:        amount,
		Iterations:    iterations,
		Greedy:        newRunResponse(amount, cmp.Greedy),
		Optimal:       newRunResponse(amount, cmp.Optimal),
		GreedyOptimal: cmp.GreedyOptimal(),
		ExtraCoins:    cmp.ExtraCoins(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) validateAmount(w http.ResponseWriter, amount *int) (int, bool) {
	if amount == nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "amount is required")
		return 0, false
	}
	if *amount < 0 || *amount > h.maxAmount {
		writeError(w, http.StatusBadRequest, "Invalid request",
			fmt.Sprintf("amount must be between 0 and %d", h.maxAmount))
		return 0, false
	}
	return *amount, true
}

// clampIterations keeps the work of one compare request within maxCompareWork.
// At least one iteration always runs; amount is already capped by maxAmount.
func clampIterations(iterations, amount, denominations int) int {
	if amount <= 0 {
		return iterations
	}
	perCall := amount * (max(denominations, 1) + 2)
	if perCall <= 0 || perCall > maxCompareWork {
		return 1
	}
	if limit := maxCompareWork / perCall; iterations > limit {
		return limit
	}
	return iterations
}

func (h *Handler) maker(algorithm string) (change.Maker, bool) {
	switch algorithm {
	case change.GreedyName:
		return h.greedy, h.greedy != nil
	case change.OptimalName:
		return h.optimal, h.optimal != nil
	}
	return nil, false
}

// orderedDenominations returns the stored denominations in the order the
// algorithm expects: largest first for greedy, smallest first otherwise.
func (h *Handler) orderedDenominations(algorithm string) ([]int, error) {
	denominations, err := h.storage.GetDenominations()
	if err != nil {
		return nil, err
	}
	if algorithm == change.GreedyName {
		return change.Descending(denominations), nil
	}
	return denominations, nil
}

func (h *Handler) currentDenominationsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.denominationsUpdatedAt
}

func (h *Handler) markDenominationsUpdated() {
	h.mu.Lock()
	h.denominationsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func outcomeOf(amount int, b change.Breakdown) string {
	switch value := b.Value(); {
	case value == amount:
		return outcomeExact
	case value == 0:
		return outcomeUnreachable
	default:
		return outcomePartial
	}
}

func micros(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / float64(time.Microsecond)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type denominationsRequest struct {
	Denominations []int `json:"denominations"`
}

type changeRequest struct {
	Amount    *int   `json:"amount"`
	Algorithm string `json:"algorithm"`
}

type compareRequest struct {
	Amount     *int `json:"amount"`
	Iterations int  `json:"iterations"`
}

type breakdownResponse struct {
	Amount     int            `json:"amount"`
	Coins      map[string]int `json:"coins"`
	TotalCoins int            `json:"totalCoins"`
	TotalValue int            `json:"totalValue"`
	Remainder  int            `json:"remainder"`
	Exact      bool           `json:"exact"`
}

func newBreakdownResponse(amount int, b change.Breakdown) breakdownResponse {
	coins := make(map[string]int, len(b))
	for d, count := range b {
		coins[strconv.Itoa(d)] = count
	}
	value := b.Value()
	return breakdownResponse{
		Amount:     amount,
		Coins:      coins,
		TotalCoins: b.Coins(),
		TotalValue: value,
		Remainder:  amount - value,
		Exact:      value == amount,
	}
}

type changeResponse struct {
	Algorithm string `json:"algorithm"`
	breakdownResponse
	CalculationTimeUs float64 `json:"calculationTimeUs"`
}

type runResponse struct {
	breakdownResponse
	PerCallUs float64 `json:"perCallUs"`
	TotalUs   float64 `json:"totalUs"`
}

func newRunResponse(amount int, run benchmark.Run) runResponse {
	return runResponse{
		breakdownResponse: newBreakdownResponse(amount, run.Breakdown),
		PerCallUs:         micros(run.PerCall()),
		TotalUs:           micros(run.Total),
	}
}

type compareResponse struct {
	Amount        int         `json:"amount"`
	Iterations    int         `json:"iterations"`
	Greedy        runResponse `json:"greedy"`
	Optimal       runResponse `json:"optimal"`
	GreedyOptimal bool        `json:"greedyOptimal"`
	ExtraCoins    int         `json:"extraCoins"`
}

type denominationsResponse struct {
	Denominations []int     `json:"denominations"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Message       string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
