package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nullptr-dev/evlayer"
)

// quirksFile is the on-disk shape of a quirks override file, keyed by
// device sysname (e.g. "event3"), mirroring the per-device
// WL_CALIBRATION/LIBINPUT_ATTR_LID_SWITCH_RELIABILITY udev properties
// the udev back-end would otherwise supply.
type quirksFile struct {
	Devices map[string]deviceQuirks `yaml:"devices"`
}

type deviceQuirks struct {
	Calibration    string `yaml:"calibration"`
	LidReliability string `yaml:"lid_reliability"`
}

func loadQuirks(path string) (quirksFile, error) {
	var (
		q    quirksFile
		data []byte
		err  error
	)

	data, err = os.ReadFile(path)
	if err != nil {
		return quirksFile{}, fmt.Errorf("loadQuirks: %w", err)
	}

	err = yaml.Unmarshal(data, &q)
	if err != nil {
		return quirksFile{}, fmt.Errorf("loadQuirks: %w", err)
	}

	return q, nil
}

// applyQuirks loads path and applies each matching device's overrides
// to the devices already registered on ctx.
func applyQuirks(ctx *evlayer.Context, path string) {
	q, err := loadQuirks(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "evlayerctl: quirks:", err)
		return
	}

	for _, dev := range ctx.Devices() {
		quirk, ok := q.Devices[dev.Sysname]
		if !ok {
			continue
		}

		if quirk.Calibration != "" {
			if cal, calErr := evlayer.ParseCalibration(quirk.Calibration); calErr == nil {
				dev.SetCalibration(cal)
			} else {
				fmt.Fprintf(os.Stderr, "evlayerctl: quirks: %s: %v\n", dev.Sysname, calErr)
			}
		}

		if quirk.LidReliability != "" {
			dev.SetLidReliability(quirk.LidReliability)
		}
	}
}
