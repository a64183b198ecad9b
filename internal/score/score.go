package score

import (
	"regexp"
	"strconv"

	"github.com/vitalwatch/vitalwatch/internal/patient"
)

// Blood pressure band boundaries (mmHg).
const (
	BPNormalSystolicMax   = 119
	BPElevatedSystolicMax = 129
	BPStage1SystolicMax   = 139
	BPNormalDiastolicMax  = 79
	BPStage1DiastolicMax  = 89
)

// Temperature band boundaries (°F).
const (
	TempNormalMax   = 99.5
	TempLowFeverMax = 100.9
)

// Age band boundaries (years).
const (
	AgeMiddleMin = 40
	AgeMiddleMax = 65
)

// SubScore is one vital-sign component of the risk total. A reading that was
// missing or unparsable is Absent; everything else is Measured — including
// legitimately low readings that contribute zero points.
type SubScore struct {
	points  int
	present bool
}

// Measured returns a sub-score backed by a real reading.
func Measured(points int) SubScore { return SubScore{points: points, present: true} }

// Absent returns the sub-score for a missing or unparsable reading.
func Absent() SubScore { return SubScore{} }

// Points is the contribution to the risk total; zero when absent.
func (s SubScore) Points() int { return s.points }

// Present reports whether the underlying reading was present and parsable.
func (s SubScore) Present() bool { return s.present }

// bpPattern extracts the first systolic/diastolic integer pair from the
// blood_pressure field.
var bpPattern = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)

// BloodPressure classifies a "systolic/diastolic" string.
//
// Bands are checked in order and the first match wins. They are not mutually
// exclusive: 121/80 satisfies the band-3 diastolic clause even though its
// systolic falls in the band-2 range. A measured pair matching no band
// scores zero.
func BloodPressure(text string) SubScore {
	m := bpPattern.FindStringSubmatch(text)
	if m == nil {
		return Absent()
	}
	sys, err1 := strconv.Atoi(m[1])
	dia, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return Absent()
	}

	switch {
	case sys <= BPNormalSystolicMax && dia <= BPNormalDiastolicMax:
		return Measured(1)
	case sys <= BPElevatedSystolicMax && dia <= BPNormalDiastolicMax:
		return Measured(2)
	case (sys > BPElevatedSystolicMax && sys <= BPStage1SystolicMax) ||
		(dia > BPNormalDiastolicMax && dia <= BPStage1DiastolicMax):
		return Measured(3)
	case sys > BPStage1SystolicMax || dia > BPStage1DiastolicMax:
		return Measured(4)
	default:
		return Measured(0)
	}
}

// Temperature bands a measured temperature reading in °F.
func Temperature(value float64) SubScore {
	switch {
	case value <= TempNormalMax:
		return Measured(0)
	case value <= TempLowFeverMax:
		return Measured(1)
	default:
		return Measured(2)
	}
}

// Age bands a measured age in years. The under-40 and 40–65 bands both award
// a single point; they are separate branches in the upstream scoring policy
// and are kept separate here.
func Age(value float64) SubScore {
	switch {
	case value < AgeMiddleMin:
		return Measured(1)
	case value <= AgeMiddleMax:
		return Measured(1)
	default:
		return Measured(2)
	}
}

// Result is the fully-derived risk score for one patient record.
type Result struct {
	BloodPressure SubScore
	Temperature   SubScore
	Age           SubScore

	// TempReading is the raw temperature value, valid only when
	// Temperature.Present(). Fever classification uses this raw reading,
	// not the banded score.
	TempReading float64
}

// Total is the combined risk score.
func (r Result) Total() int {
	return r.BloodPressure.Points() + r.Temperature.Points() + r.Age.Points()
}

// DataIssue reports whether any vital sign was missing or unparsable.
func (r Result) DataIssue() bool {
	return !r.BloodPressure.Present() || !r.Temperature.Present() || !r.Age.Present()
}

// Evaluate scores one patient record. A nil record scores zero on every
// component with all readings absent.
func Evaluate(rec *patient.Record) Result {
	if rec == nil {
		return Result{}
	}

	res := Result{BloodPressure: BloodPressure(rec.BloodPressure)}

	if v, ok := rec.TemperatureReading(); ok {
		res.Temperature = Temperature(v)
		res.TempReading = v
	}
	if v, ok := rec.AgeYears(); ok {
		res.Age = Age(v)
	}
	return res
}
