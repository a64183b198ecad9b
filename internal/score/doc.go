// Package score derives a deterministic risk score from a patient's vital
// signs.
//
// Each of the three vitals (blood pressure, temperature, age) maps to a
// SubScore, a tagged value that distinguishes a missing or unparsable
// reading (Absent) from a real one (Measured). This keeps "scored zero
// because the reading is healthy" apart from "scored zero because there was
// nothing to score" — only the latter marks a data-quality issue.
//
// Evaluate(record) returns the combined Result; the band boundaries live in
// the exported constants at the top of score.go.
package score
