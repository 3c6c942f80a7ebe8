package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/coin-change/internal/change"
	"github.com/eugenenazirov/coin-change/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T, opts ...HandlerOption) (http.Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))

	opts = append([]HandlerOption{WithClock(clock.Now)}, opts...)
	handler := NewHandler(change.NewGreedy(), change.NewOptimal(), store, opts...)
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false), WithRateLimit(0, 0))

	return router, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = data
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func putDenominations(t *testing.T, router http.Handler, denominations []int) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPut, "/api/denominations", map[string]any{"denominations": denominations})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for denominations update, got %d", rec.Code)
	}
}

type changeBody struct {
	Algorithm  string         `json:"algorithm"`
	Amount     int            `json:"amount"`
	Coins      map[string]int `json:"coins"`
	TotalCoins int            `json:"totalCoins"`
	TotalValue int            `json:"totalValue"`
	Remainder  int            `json:"remainder"`
	Exact      bool           `json:"exact"`
}

func decodeChange(t *testing.T, rec *httptest.ResponseRecorder) changeBody {
	t.Helper()

	var body changeBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func assertCoins(t *testing.T, got, want map[string]int) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("expected coins %v, got %v", want, got)
	}
	for coin, count := range want {
		if got[coin] != count {
			t.Fatalf("expected coin %s count %d, got %d", coin, count, got[coin])
		}
	}
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetDenominationsReturnsDefaults(t *testing.T) {
	router, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/denominations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Denominations []int     `json:"denominations"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := storage.DefaultDenominations()
	if len(body.Denominations) != len(want) {
		t.Fatalf("expected %d denominations, got %d", len(want), len(body.Denominations))
	}
	for i, d := range want {
		if body.Denominations[i] != d {
			t.Fatalf("expected denomination %d at position %d, got %d", d, i, body.Denominations[i])
		}
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutDenominationsUpdatesStorage(t *testing.T) {
	router, clock := setupTestRouter(t)

	clock.Advance(time.Hour)

	rec := doJSON(t, router, http.MethodPut, "/api/denominations", map[string]any{"denominations": []int{4, 1, 3}})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Denominations []int     `json:"denominations"`
		UpdatedAt     time.Time `json:"updatedAt"`
		Message       string    `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}

	want := []int{1, 3, 4}
	if len(body.Denominations) != len(want) {
		t.Fatalf("expected %d denominations, got %d", len(want), len(body.Denominations))
	}
	for i, d := range want {
		if body.Denominations[i] != d {
			t.Fatalf("expected denomination %d at position %d, got %d", d, i, body.Denominations[i])
		}
	}

	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}
}

func TestPutDenominationsValidatesInput(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, payload := range []any{
		map[string]any{"denominations": []int{}},
		map[string]any{"denominations": []int{5, 0}},
		"not an object",
	} {
		rec := doJSON(t, router, http.MethodPut, "/api/denominations", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %v, got %d", payload, rec.Code)
		}
	}
}

func TestChangeEndpointOptimal(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 113})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeChange(t, rec)
	if body.Algorithm != change.OptimalName {
		t.Fatalf("expected default algorithm %s, got %s", change.OptimalName, body.Algorithm)
	}
	assertCoins(t, body.Coins, map[string]int{"50": 2, "10": 1, "2": 1, "1": 1})
	if body.TotalCoins != 5 || body.TotalValue != 113 || body.Remainder != 0 || !body.Exact {
		t.Fatalf("unexpected totals: %+v", body)
	}
}

func TestChangeEndpointGreedyIsSuboptimal(t *testing.T) {
	router, _ := setupTestRouter(t)
	putDenominations(t, router, []int{1, 3, 4})

	rec := doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 6, "algorithm": "greedy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	greedy := decodeChange(t, rec)
	assertCoins(t, greedy.Coins, map[string]int{"4": 1, "1": 2})

	rec = doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 6, "algorithm": "optimal"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	optimal := decodeChange(t, rec)
	assertCoins(t, optimal.Coins, map[string]int{"3": 2})

	if optimal.TotalCoins >= greedy.TotalCoins {
		t.Fatalf("expected optimal (%d) to use fewer coins than greedy (%d)", optimal.TotalCoins, greedy.TotalCoins)
	}
}

func TestChangeEndpointGreedyPartial(t *testing.T) {
	router, _ := setupTestRouter(t)
	putDenominations(t, router, []int{4, 5})

	rec := doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 8, "algorithm": "greedy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body := decodeChange(t, rec)
	assertCoins(t, body.Coins, map[string]int{"5": 1})
	if body.Exact || body.Remainder != 3 {
		t.Fatalf("expected partial result with remainder 3, got %+v", body)
	}
}

func TestChangeEndpointUnreachable(t *testing.T) {
	router, _ := setupTestRouter(t)
	putDenominations(t, router, []int{5, 10})

	rec := doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 3})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body struct {
		Suggestion string `json:"suggestion"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Suggestion == "" {
		t.Fatalf("expected suggestion to be populated")
	}
}

func TestChangeEndpointZeroAmount(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, algorithm := range []string{change.GreedyName, change.OptimalName} {
		rec := doJSON(t, router, http.MethodPost, "/api/change", map[string]any{"amount": 0, "algorithm": algorithm})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", algorithm, rec.Code)
		}
		body := decodeChange(t, rec)
		if len(body.Coins) != 0 || !body.Exact {
			t.Fatalf("%s: expected empty exact breakdown, got %+v", algorithm, body)
		}
	}
}

func TestChangeEndpointRejectsInvalidInput(t *testing.T) {
	router, _ := setupTestRouter(t, WithMaxAmount(1000))

	cases := []any{
		map[string]any{},
		map[string]any{"amount": -1},
		map[string]any{"amount": 1001},
		map[string]any{"amount": 10, "algorithm": "random"},
		"garbage",
	}
	for _, payload := range cases {
		rec := doJSON(t, router, http.MethodPost, "/api/change", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for %v, got %d", payload, rec.Code)
		}
	}
}

func TestCompareEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/compare", map[string]any{"amount": 1234, "iterations": 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Amount        int        `json:"amount"`
		Iterations    int        `json:"iterations"`
		Greedy        changeBody `json:"greedy"`
		Optimal       changeBody `json:"optimal"`
		GreedyOptimal bool       `json:"greedyOptimal"`
		ExtraCoins    int        `json:"extraCoins"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Amount != 1234 || body.Iterations != 3 {
		t.Fatalf("unexpected amount/iterations: %+v", body)
	}
	if body.Greedy.TotalValue != 1234 || body.Optimal.TotalValue != 1234 {
		t.Fatalf("expected both breakdowns to sum to 1234, got %d and %d", body.Greedy.TotalValue, body.Optimal.TotalValue)
	}
	if body.Optimal.TotalCoins > body.Greedy.TotalCoins {
		t.Fatalf("optimal used more coins than greedy: %d > %d", body.Optimal.TotalCoins, body.Greedy.TotalCoins)
	}
	if !body.GreedyOptimal || body.ExtraCoins != 0 {
		t.Fatalf("expected greedy to be optimal for canonical set, got %+v", body)
	}
}

func TestCompareEndpointNonCanonical(t *testing.T) {
	router, _ := setupTestRouter(t, WithBenchmarkIterations(2))
	putDenominations(t, router, []int{1, 3, 4})

	rec := doJSON(t, router, http.MethodPost, "/api/compare", map[string]any{"amount": 6})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Iterations    int  `json:"iterations"`
		GreedyOptimal bool `json:"greedyOptimal"`
		ExtraCoins    int  `json:"extraCoins"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Iterations != 2 {
		t.Fatalf("expected configured iterations, got %d", body.Iterations)
	}
	if body.GreedyOptimal || body.ExtraCoins != 1 {
		t.Fatalf("expected greedy to use one extra coin, got %+v", body)
	}
}

func TestCompareEndpointRejectsInvalidIterations(t *testing.T) {
	router, _ := setupTestRouter(t)

	for _, iterations := range []int{-1, maxIterations + 1} {
		rec := doJSON(t, router, http.MethodPost, "/api/compare", map[string]any{"amount": 10, "iterations": iterations})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for iterations %d, got %d", iterations, rec.Code)
		}
	}
}

func TestClampIterations(t *testing.T) {
	cases := []struct {
		iterations, amount, denominations, want int
	}{
		{iterations: 1000, amount: 0, denominations: 6, want: 1000},
		{iterations: 1000, amount: 1234, denominations: 6, want: 1000},
		{iterations: 1000, amount: 1_000_000, denominations: 6, want: 12},
		{iterations: 1000, amount: 1_000_000, denominations: 10, want: 8},
		{iterations: 1000, amount: 100_000, denominations: 1, want: 333},
		{iterations: 1000, amount: 100_000, denominations: 10, want: 83},
		{iterations: 10, amount: maxCompareWork, denominations: 1, want: 1},
	}
	for _, tc := range cases {
		if got := clampIterations(tc.iterations, tc.amount, tc.denominations); got != tc.want {
			t.Fatalf("clampIterations(%d, %d, %d) = %d, want %d",
				tc.iterations, tc.amount, tc.denominations, got, tc.want)
		}
	}
}

func TestCompareEndpointScalesIterationsWithDenominations(t *testing.T) {
	router, _ := setupTestRouter(t)
	putDenominations(t, router, []int{1, 2, 5, 10, 20, 25, 50, 100, 200, 500})

	rec := doJSON(t, router, http.MethodPost, "/api/compare", map[string]any{"amount": 100_000, "iterations": 1000})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Iterations int `json:"iterations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Iterations != 83 {
		t.Fatalf("expected iterations clamped to 83 for ten denominations, got %d", body.Iterations)
	}
}

func TestCorsPreflight(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/change", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}
}

func TestRequestIDGenerated(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Fatalf("expected generated UUID request id, got %q", got)
	}
}
