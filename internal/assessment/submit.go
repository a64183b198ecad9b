package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/vitalwatch/vitalwatch/internal/config"
	"github.com/vitalwatch/vitalwatch/internal/triage"
)

// Submitter posts the aggregated classification back to the API.
type Submitter struct {
	base   string
	client *http.Client
}

// NewSubmitter builds a Submitter for the given API.
func NewSubmitter(api config.APIConfig) *Submitter {
	return &Submitter{
		base:   baseURL(api),
		client: newHTTPClient(api),
	}
}

// Submit serializes the report and POSTs it to /submit-assessment. There is
// no retry: any network failure or non-2xx status fails the run. The
// server's acknowledgement body is returned verbatim.
func (s *Submitter) Submit(ctx context.Context, rep *triage.Report) (json.RawMessage, error) {
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("assessment: encode report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.base+"/submit-assessment", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("assessment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assessment: submit: %w", err)
	}
	defer resp.Body.Close()

	ack, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("assessment: read ack: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("assessment: submit: unexpected status %d: %s", resp.StatusCode, ack)
	}

	return json.RawMessage(ack), nil
}
