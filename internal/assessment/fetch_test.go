package assessment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/config"
)

// sleepRecorder captures every wait instead of sleeping.
type sleepRecorder struct {
	waits []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func testPolicy() config.FetchConfig {
	return config.FetchConfig{
		PageSize:    5,
		PagePause:   3 * time.Second,
		BackoffStep: 3 * time.Second,
		MaxAttempts: 10,
		OnExhausted: config.OnExhaustedFail,
	}
}

// newTestFetcher wires a Fetcher to a test server with recorded sleeps.
func newTestFetcher(t *testing.T, srv *httptest.Server, policy config.FetchConfig) (*Fetcher, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	f := &Fetcher{
		base:   srv.URL,
		policy: policy,
		client: srv.Client(),
		sleep:  rec.sleep,
	}
	return f, rec
}

// pageBody renders one /patients response with n records and the given
// totalPages.
func pageBody(page, n, totalPages int) string {
	var rows []string
	for i := 0; i < n; i++ {
		rows = append(rows, fmt.Sprintf(
			`{"patient_id":"P%d-%d","name":"x","age":50,"temperature":98.6,"blood_pressure":"118/76"}`,
			page, i))
	}
	return fmt.Sprintf(`{"data":[%s],"pagination":{"page":%d,"totalPages":%d}}`,
		strings.Join(rows, ","), page, totalPages)
}

func TestFetchAll_WalksAllPages(t *testing.T) {
	const totalPages = 3
	var gotPaths []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.String())
		page := 0
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		fmt.Fprint(w, pageBody(page, 5, totalPages))
	}))
	defer srv.Close()

	f, rec := newTestFetcher(t, srv, testPolicy())
	records, outcomes, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if len(records) != 15 {
		t.Errorf("records = %d, want 15", len(records))
	}
	if records[0].ID != "P1-0" || records[14].ID != "P3-4" {
		t.Errorf("record order wrong: first %q last %q", records[0].ID, records[14].ID)
	}
	if len(outcomes) != totalPages {
		t.Fatalf("outcomes = %d, want %d", len(outcomes), totalPages)
	}
	for i, o := range outcomes {
		if o.Exhausted || o.Attempts != 1 || o.Records != 5 {
			t.Errorf("outcome[%d] = %+v, want clean single-attempt page", i, o)
		}
	}

	wantPath := "/patients?page=1&limit=5"
	if gotPaths[0] != wantPath {
		t.Errorf("first request path = %q, want %q", gotPaths[0], wantPath)
	}

	// Fixed pause between successful pages, none after the last.
	want := []time.Duration{3 * time.Second, 3 * time.Second}
	if len(rec.waits) != len(want) || rec.waits[0] != want[0] || rec.waits[1] != want[1] {
		t.Errorf("pauses = %v, want %v", rec.waits, want)
	}
}

func TestFetchAll_RetriesWithLinearBackoff(t *testing.T) {
	// Three consecutive 429s, then success: exactly four requests with
	// waits of 3s, 6s, 9s before the fourth succeeds.
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, pageBody(1, 2, 1))
	}))
	defer srv.Close()

	f, rec := newTestFetcher(t, srv, testPolicy())
	records, outcomes, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}

	if requests != 4 {
		t.Errorf("requests = %d, want 4", requests)
	}
	want := []time.Duration{3 * time.Second, 6 * time.Second, 9 * time.Second}
	if len(rec.waits) != 3 {
		t.Fatalf("waits = %v, want %v", rec.waits, want)
	}
	for i := range want {
		if rec.waits[i] != want[i] {
			t.Errorf("wait[%d] = %v, want %v", i, rec.waits[i], want[i])
		}
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
	if outcomes[0].Attempts != 4 {
		t.Errorf("attempts = %d, want 4", outcomes[0].Attempts)
	}
}

func TestFetchAll_RetryableStatuses(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			var requests int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				requests++
				if requests == 1 {
					w.WriteHeader(status)
					return
				}
				fmt.Fprint(w, pageBody(1, 1, 1))
			}))
			defer srv.Close()

			f, _ := newTestFetcher(t, srv, testPolicy())
			_, outcomes, err := f.FetchAll(context.Background())
			if err != nil {
				t.Fatalf("FetchAll() error = %v", err)
			}
			if outcomes[0].Attempts != 2 {
				t.Errorf("attempts = %d, want 2", outcomes[0].Attempts)
			}
		})
	}
}

func TestFetchAll_UndecodableBodyIsRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, `{"data": [not json`)
			return
		}
		fmt.Fprint(w, pageBody(1, 1, 1))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, srv, testPolicy())
	_, outcomes, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if outcomes[0].Attempts != 2 {
		t.Errorf("attempts = %d, want 2", outcomes[0].Attempts)
	}
}

func TestFetchAll_ExhaustedPageReportedNotRaised(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f, rec := newTestFetcher(t, srv, testPolicy())
	records, outcomes, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v, exhaustion must not raise", err)
	}

	if requests != 10 {
		t.Errorf("requests = %d, want 10", requests)
	}
	// Backoff after each failed attempt except the last.
	if len(rec.waits) != 9 {
		t.Errorf("waits = %d, want 9", len(rec.waits))
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outcomes))
	}
	o := outcomes[0]
	if !o.Exhausted || o.Attempts != 10 || o.Err == nil {
		t.Errorf("outcome = %+v, want exhausted after 10 attempts with Err set", o)
	}
}

func TestFetchAll_NonRetryableStatusIsFatal(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, srv, testPolicy())
	_, _, err := f.FetchAll(context.Background())
	if err == nil {
		t.Fatal("FetchAll() should fail on a non-retryable status")
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no retry)", requests)
	}
}

func TestFetchAll_TotalPagesReReadEachPage(t *testing.T) {
	// Page 1 reports 2 total pages; page 2 raises it to 3. The walk must
	// pick up the fresher value.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 0
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		total := 2
		if page >= 2 {
			total = 3
		}
		fmt.Fprint(w, pageBody(page, 1, total))
	}))
	defer srv.Close()

	f, _ := newTestFetcher(t, srv, testPolicy())
	records, outcomes, err := f.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if len(outcomes) != 3 {
		t.Errorf("outcomes = %d, want 3", len(outcomes))
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}
}

func TestFetchAll_CancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher{
		base:   srv.URL,
		policy: testPolicy(),
		client: srv.Client(),
		sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	_, _, err := f.FetchAll(ctx)
	if err == nil {
		t.Fatal("FetchAll() should surface context cancellation")
	}
}

func TestNewHTTPClient_SetsAuthHeaders(t *testing.T) {
	t.Setenv("TEST_ASSESSMENT_KEY", "ak_test_123")

	var gotKey, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotReqID = r.Header.Get("X-Request-Id")
		fmt.Fprint(w, pageBody(1, 0, 1))
	}))
	defer srv.Close()

	api := config.APIConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Auth: config.AuthConfig{
			Mode:   "apikey",
			Header: "x-api-key",
			KeyEnv: "TEST_ASSESSMENT_KEY",
		},
	}
	f := NewFetcher(api, testPolicy())
	f.sleep = (&sleepRecorder{}).sleep

	if _, _, err := f.FetchAll(context.Background()); err != nil {
		t.Fatalf("FetchAll() error = %v", err)
	}
	if gotKey != "ak_test_123" {
		t.Errorf("x-api-key = %q, want %q", gotKey, "ak_test_123")
	}
	if gotReqID == "" {
		t.Error("X-Request-Id header missing")
	}
}
