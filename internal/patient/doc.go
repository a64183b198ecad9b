// Package patient defines the wire model for patient records fetched from
// the assessment API, including tolerant accessors for the fields that
// arrive with inconsistent JSON types.
package patient
