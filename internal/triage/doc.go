// Package triage partitions the fetched patient set into the three alert
// lists the assessment API expects: high_risk_patients (combined score ≥ 4),
// fever_patients (raw temperature ≥ 99.6), and data_quality_issues (any
// vital missing or unparsable).
package triage
