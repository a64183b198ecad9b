package triage

import (
	"github.com/vitalwatch/vitalwatch/internal/patient"
	"github.com/vitalwatch/vitalwatch/internal/score"
)

// HighRiskThreshold is the combined risk total at or above which a patient
// is listed as high risk.
const HighRiskThreshold = 4

// FeverThreshold is the raw temperature reading, in °F, at or above which a
// patient is listed as febrile. This is independent of the banded
// temperature score.
const FeverThreshold = 99.6

// Report is the aggregated classification submitted back to the API.
//
// A patient may appear in any combination of the three lists; membership
// criteria are evaluated independently. List order is encounter order and
// duplicates in the source data are kept.
type Report struct {
	HighRisk    []string `json:"high_risk_patients"`
	Fever       []string `json:"fever_patients"`
	DataQuality []string `json:"data_quality_issues"`

	// Skipped counts null records dropped during the pass.
	Skipped int `json:"-"`
}

// Classify scores every record in one pass and accumulates the alert lists.
// Nil records are skipped. The lists are always non-nil so an empty list
// serializes as [] rather than null.
func Classify(records []*patient.Record) *Report {
	rep := &Report{
		HighRisk:    []string{},
		Fever:       []string{},
		DataQuality: []string{},
	}

	for _, rec := range records {
		if rec == nil {
			rep.Skipped++
			continue
		}

		res := score.Evaluate(rec)

		if res.Total() >= HighRiskThreshold {
			rep.HighRisk = append(rep.HighRisk, rec.ID)
		}
		if res.Temperature.Present() && res.TempReading >= FeverThreshold {
			rep.Fever = append(rep.Fever, rec.ID)
		}
		if res.DataIssue() {
			rep.DataQuality = append(rep.DataQuality, rec.ID)
		}
	}

	return rep
}
