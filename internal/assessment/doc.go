// Package assessment is the HTTP client for the remote clinical assessment
// API.
//
// Fetcher (fetch.go) walks GET /patients page by page, starting at page 1,
// using the server-reported totalPages as the loop bound. Transient failures
// (HTTP 429, 500, 502, 503, network errors, undecodable bodies) are retried
// per page with linear backoff — wait = backoff_step × attempt — up to the
// configured attempt budget. A page that exhausts its budget is reported as
// a PageOutcome with Exhausted set rather than silently dropped; the caller
// decides whether the run continues. Any other non-2xx status aborts the
// fetch. A fixed pause is inserted between successful page fetches to stay
// under the API's rate limit.
//
// Submitter (submit.go) POSTs the triage report to /submit-assessment, with
// no retry, and returns the server's acknowledgement verbatim.
//
// Authentication (API key header or bearer token, resolved from environment
// variables) is handled by the shared authRoundTripper in client.go, which
// also stamps an X-Request-Id on every request. All timed waits go through
// an injectable sleep function so tests never sleep.
package assessment
