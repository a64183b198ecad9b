package patient

import (
	"math"
	"strconv"
	"strings"
)

// Record is one patient row as returned by the assessment API.
//
// Age and Temperature arrive as either JSON numbers or numeric strings, and
// occasionally as garbage or not at all. They are kept raw and coerced on
// access so a bad field never fails the decode of a whole page.
type Record struct {
	ID            string `json:"patient_id"`
	Name          string `json:"name"`
	Age           any    `json:"age"`
	Temperature   any    `json:"temperature"`
	BloodPressure string `json:"blood_pressure"`
}

// TemperatureReading coerces the temperature field to a float.
// ok is false when the field is absent, non-numeric, or NaN.
func (r *Record) TemperatureReading() (value float64, ok bool) {
	return coerceFloat(r.Temperature)
}

// AgeYears coerces the age field to a float.
// ok is false when the field is absent or non-numeric.
func (r *Record) AgeYears() (value float64, ok bool) {
	return coerceFloat(r.Age)
}

// coerceFloat handles the mixed types the API emits: JSON numbers decode as
// float64, but some rows carry numeric strings instead.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
