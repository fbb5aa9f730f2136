package evlayer

import (
	"fmt"
	"strconv"
	"strings"
)

// Calibration is the 6-float 3x2 affine transform applied to absolute
// and multi-touch coordinates after logical-screen scaling, sourced
// from the discovery collaborator's WL_CALIBRATION device property.
// x' = A*x + B*y + C, y' = D*x + E*y + F.
type Calibration struct {
	A, B, C, D, E, F float64
	Enabled          bool
}

// IdentityCalibration returns the enabled identity transform, matching
// the testable property that calibration [1 0 0 0 1 0] is a no-op.
func IdentityCalibration() Calibration {
	return Calibration{A: 1, E: 1, Enabled: true}
}

// ParseCalibration parses a WL_CALIBRATION-style string of six
// whitespace-separated floats "a b c d e f" into an enabled matrix.
func ParseCalibration(s string) (Calibration, error) {
	var (
		fields = strings.Fields(s)
		values [6]float64
		i      int
		err    error
	)

	if len(fields) != 6 {
		return Calibration{}, fmt.Errorf("evlayer.ParseCalibration: want 6 fields, got %d", len(fields))
	}

	for i = range fields {
		values[i], err = strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return Calibration{}, fmt.Errorf("evlayer.ParseCalibration: %w", err)
		}
	}

	return Calibration{
		A: values[0], B: values[1], C: values[2],
		D: values[3], E: values[4], F: values[5],
		Enabled: true,
	}, nil
}

// Apply transforms (x, y) through the matrix if enabled, else returns
// them unchanged.
func (m Calibration) Apply(x, y float64) (float64, float64) {
	if !m.Enabled {
		return x, y
	}

	return m.A*x + m.B*y + m.C, m.D*x + m.E*y + m.F
}
