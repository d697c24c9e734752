package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("expected path /quote, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL, WithRateInterval(time.Millisecond))
	body, err := client.Get(context.Background(), "/quote", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL,
		WithRateInterval(time.Millisecond),
		WithRetry(2, time.Millisecond),
	)

	_, err := client.Get(context.Background(), "/quote", nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	// maxRetries=2 means 1 initial attempt + 2 retries
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", apiErr.StatusCode)
	}
}

func TestGet_RetriesRateLimitResponse(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL,
		WithRateInterval(time.Millisecond),
		WithRetry(3, time.Millisecond),
	)

	if _, err := client.Get(context.Background(), "/quote", nil); err != nil {
		t.Fatalf("expected success after 429 retry, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestGet_RetryDelaysGrowMonotonically(t *testing.T) {
	var mu sync.Mutex
	var arrivals []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrivals = append(arrivals, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	retryDelay := 30 * time.Millisecond
	client := NewClient("test", srv.URL,
		WithRateInterval(time.Millisecond),
		WithRetry(3, retryDelay),
	)

	if _, err := client.Get(context.Background(), "/quote", nil); err == nil {
		t.Fatal("expected error after exhausting retries on 429")
	}

	mu.Lock()
	defer mu.Unlock()

	// maxRetries=3 means 1 initial attempt + 3 retries, even when every
	// response is a 429
	if len(arrivals) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(arrivals))
	}

	// Delays double each retry: 30ms, 60ms, 120ms. Scheduling can stretch a
	// gap but the timer never fires early, so each gap must be at least its
	// slot in the doubling schedule — which also makes the schedule monotonic.
	for i := 1; i < len(arrivals); i++ {
		want := retryDelay << (i - 1)
		gap := arrivals[i].Sub(arrivals[i-1])
		if gap < want {
			t.Errorf("gap %d = %v, want at least %v", i, gap, want)
		}
	}
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad symbol"))
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL,
		WithRateInterval(time.Millisecond),
		WithRetry(3, time.Millisecond),
	)

	_, err := client.Get(context.Background(), "/quote", nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("400 should not be retried, got %d attempts", got)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Provider != "test" {
		t.Errorf("expected provider test, got %s", apiErr.Provider)
	}
}

func TestGet_EnforcesMinimumInterval(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	interval := 80 * time.Millisecond
	client := NewClient("test", srv.URL, WithRateInterval(interval))

	ctx := context.Background()
	start := time.Now()
	if _, err := client.Get(ctx, "/a", nil); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := client.Get(ctx, "/b", nil); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	elapsed := time.Since(start)

	// The first call is immediate; the second must wait out the interval.
	if elapsed < interval-10*time.Millisecond {
		t.Errorf("calls spaced %v apart, want at least %v", elapsed, interval)
	}
}

func TestGet_ContextCancelledDuringWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL, WithRateInterval(time.Hour))

	ctx := context.Background()
	if _, err := client.Get(ctx, "/a", nil); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := client.Get(cctx, "/b", nil); err == nil {
		t.Fatal("expected error when context expires during rate wait")
	}
}

func TestStats_CountsFailedCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("test", srv.URL,
		WithRateInterval(time.Millisecond),
		WithDailyQuota(100),
	)

	before := time.Now()
	client.Get(context.Background(), "/missing", nil)

	stats := client.Stats()
	if stats.Provider != "test" {
		t.Errorf("expected provider test, got %s", stats.Provider)
	}
	if stats.Calls != 1 {
		t.Errorf("failed calls must still count toward the total, got %d", stats.Calls)
	}
	if stats.DailyQuota != 100 {
		t.Errorf("expected quota 100, got %d", stats.DailyQuota)
	}
	if stats.QuotaExceeded {
		t.Error("quota should not be exceeded after one call")
	}
	if stats.LastCall.Before(before) {
		t.Error("last-call timestamp must advance even on failure")
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Provider: "finnhub", StatusCode: 502, Message: "upstream", Endpoint: "/quote"}
	want := "finnhub API error: status 502 on /quote: upstream"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
