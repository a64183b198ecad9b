package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/patient"
)

// pageResponse is the wire shape of one GET /patients response.
// Records decode as pointers so a JSON null entry stays visible as nil.
type pageResponse struct {
	Data       []*patient.Record `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
	} `json:"pagination"`
}

// PageOutcome records how the fetch of one page ended. An exhausted page
// contributed no records; the orchestrator decides whether the run may
// continue without it.
type PageOutcome struct {
	Page      int
	Records   int
	Attempts  int
	Exhausted bool
	Err       error // last error seen; set when Exhausted
}

// transientError marks a failure worth retrying: rate limiting, retryable
// server-side statuses, network faults, and undecodable bodies.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Fetcher retrieves the complete patient listing page by page.
type Fetcher struct {
	base   string
	policy config.FetchConfig
	client *http.Client
	sleep  sleepFunc
}

// NewFetcher builds a Fetcher for the given API and retry policy.
func NewFetcher(api config.APIConfig, policy config.FetchConfig) *Fetcher {
	return &Fetcher{
		base:   baseURL(api),
		policy: policy,
		client: newHTTPClient(api),
		sleep:  sleepContext,
	}
}

// FetchAll walks /patients from page 1 until the server-reported totalPages
// is reached, strictly in ascending order, one page at a time. Records are
// returned in page order. One PageOutcome is returned per page attempted; an
// exhausted page does not abort the walk.
//
// Any HTTP status outside 2xx and the retryable set is fatal and aborts the
// whole fetch immediately.
func (f *Fetcher) FetchAll(ctx context.Context) ([]*patient.Record, []PageOutcome, error) {
	var (
		records  []*patient.Record
		outcomes []PageOutcome
	)

	totalPages := 1
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		res, outcome, err := f.fetchPage(ctx, pageNum)
		if err != nil {
			return nil, nil, err
		}
		outcomes = append(outcomes, outcome)

		if !outcome.Exhausted {
			records = append(records, res.Data...)
			// totalPages is re-read from every response; the first page
			// establishes the loop bound and later pages keep it fresh.
			if res.Pagination.TotalPages > 0 {
				totalPages = res.Pagination.TotalPages
			}
			slog.Info("fetch: page complete",
				"page", pageNum,
				"records", outcome.Records,
				"total_pages", totalPages,
			)
		}

		// Fixed pause between successful page fetches only; an exhausted
		// page already spent its backoff budget.
		if !outcome.Exhausted && pageNum < totalPages {
			slog.Debug("fetch: pausing between pages",
				"page", pageNum, "pause", f.policy.PagePause)
			if err := f.sleep(ctx, f.policy.PagePause); err != nil {
				return nil, nil, err
			}
		}
	}

	return records, outcomes, nil
}

// fetchPage requests one page, retrying transient failures with linear
// backoff until the attempt budget runs out. A returned error is fatal to
// the whole fetch; exhaustion is reported through the outcome instead.
func (f *Fetcher) fetchPage(ctx context.Context, pageNum int) (*pageResponse, PageOutcome, error) {
	outcome := PageOutcome{Page: pageNum}

	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		outcome.Attempts = attempt

		res, err := f.getPage(ctx, pageNum)
		if err == nil {
			outcome.Records = len(res.Data)
			return res, outcome, nil
		}

		if ctx.Err() != nil {
			return nil, outcome, ctx.Err()
		}

		var te *transientError
		if !errors.As(err, &te) {
			return nil, outcome, err
		}

		if attempt == f.policy.MaxAttempts {
			outcome.Exhausted = true
			outcome.Err = err
			slog.Error("fetch: page exhausted its attempt budget",
				"page", pageNum, "attempts", attempt, "err", err)
			return nil, outcome, nil
		}

		wait := time.Duration(attempt) * f.policy.BackoffStep
		slog.Warn("fetch: transient failure, will retry",
			"page", pageNum, "attempt", attempt, "retry_in", wait, "err", err)
		if serr := f.sleep(ctx, wait); serr != nil {
			return nil, outcome, serr
		}
	}

	// Not reached while MaxAttempts >= 1; config validation guarantees that.
	return nil, outcome, nil
}

// getPage performs a single GET of one page and decodes the body.
func (f *Fetcher) getPage(ctx context.Context, pageNum int) (*pageResponse, error) {
	url := fmt.Sprintf("%s/patients?page=%d&limit=%d", f.base, pageNum, f.policy.PageSize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("assessment: build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &transientError{fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case retryableStatus(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &transientError{fmt.Errorf("status %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("assessment: page %d: unexpected status %d", pageNum, resp.StatusCode)
	}

	var pr pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, &transientError{fmt.Errorf("decode page: %w", err)}
	}
	return &pr, nil
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}
