package evlayer

import "testing"

func TestIdentityCalibrationIsNoOp(t *testing.T) {
	var (
		c    = IdentityCalibration()
		x, y = c.Apply(12.5, -3.25)
	)

	if x != 12.5 || y != -3.25 {
		t.Errorf("Apply(12.5, -3.25) = (%v, %v), want (12.5, -3.25)", x, y)
	}
}

func TestDisabledCalibrationIsNoOp(t *testing.T) {
	var (
		c    = Calibration{A: 2, E: 2}
		x, y = c.Apply(1, 1)
	)

	if x != 1 || y != 1 {
		t.Errorf("disabled Apply(1, 1) = (%v, %v), want (1, 1)", x, y)
	}
}

func TestParseCalibrationValidString(t *testing.T) {
	c, err := ParseCalibration("1 0 0 0 1 0")
	if err != nil {
		t.Fatalf("ParseCalibration: %v", err)
	}

	if !c.Enabled {
		t.Error("Enabled = false, want true")
	}

	x, y := c.Apply(3, 4)
	if x != 3 || y != 4 {
		t.Errorf("Apply(3, 4) = (%v, %v), want (3, 4)", x, y)
	}
}

func TestParseCalibrationWrongFieldCount(t *testing.T) {
	if _, err := ParseCalibration("1 0 0"); err == nil {
		t.Error("ParseCalibration with 3 fields: got nil error, want error")
	}
}

func TestParseCalibrationNonNumeric(t *testing.T) {
	if _, err := ParseCalibration("a b c d e f"); err == nil {
		t.Error("ParseCalibration with non-numeric fields: got nil error, want error")
	}
}

func TestApplyMixesBothAxes(t *testing.T) {
	// A 90-degree rotation: x' = -y, y' = x.
	var c = Calibration{A: 0, B: -1, C: 0, D: 1, E: 0, F: 0, Enabled: true}

	x, y := c.Apply(2, 5)
	if x != -5 || y != 2 {
		t.Errorf("Apply(2, 5) = (%v, %v), want (-5, 2)", x, y)
	}
}
