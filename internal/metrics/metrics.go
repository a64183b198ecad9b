package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Run accumulates counters over one assessment run.
type Run struct {
	PagesFetched    int
	PagesExhausted  int
	PageRequests    int // page requests issued, including retries
	Retries         int
	PatientsSeen    int
	PatientsSkipped int
	HighRisk        int
	Fever           int
	DataQuality     int
	Duration        time.Duration
}

// Encode writes the run metrics to w in Prometheus text exposition format.
func (r *Run) Encode(w io.Writer) error {
	for _, mf := range r.families() {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile writes the run metrics to path, replacing the file
// atomically (write to a temp file, then rename) the way textfile
// collectors expect updates.
func (r *Run) WriteTextfile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("metrics: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := r.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("metrics: rename into place: %w", err)
	}
	return nil
}

// families builds the metric families for one run.
func (r *Run) families() []*dto.MetricFamily {
	return []*dto.MetricFamily{
		counter("vitalwatch_pages_fetched_total",
			"Patient pages fetched successfully.", float64(r.PagesFetched)),
		counter("vitalwatch_pages_exhausted_total",
			"Patient pages that exhausted their retry budget.", float64(r.PagesExhausted)),
		counter("vitalwatch_page_requests_total",
			"Page requests issued, including retries.", float64(r.PageRequests)),
		counter("vitalwatch_page_retries_total",
			"Page requests that were retries of a failed attempt.", float64(r.Retries)),
		counter("vitalwatch_patients_classified_total",
			"Patient records classified.", float64(r.PatientsSeen)),
		counter("vitalwatch_patients_skipped_total",
			"Null patient records skipped during classification.", float64(r.PatientsSkipped)),
		gauge("vitalwatch_high_risk_patients",
			"Patients in the high-risk alert list.", float64(r.HighRisk)),
		gauge("vitalwatch_fever_patients",
			"Patients in the fever alert list.", float64(r.Fever)),
		gauge("vitalwatch_data_quality_issues",
			"Patients in the data-quality alert list.", float64(r.DataQuality)),
		gauge("vitalwatch_run_duration_seconds",
			"Wall-clock duration of the assessment run.", r.Duration.Seconds()),
	}
}

func counter(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: ptr(value)}}},
	}
}

func gauge(name, help string, value float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   ptr(name),
		Help:   ptr(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: ptr(value)}}},
	}
}

func ptr[T any](v T) *T { return &v }
