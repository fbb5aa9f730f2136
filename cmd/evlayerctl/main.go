// Package main implements the evlayerctl CLI, which discovers input
// devices through the path discovery back-end and prints a summary
// table of their capabilities, optionally applying a per-device quirks
// file for calibration and lid-switch reliability overrides.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sys/unix"

	"github.com/nullptr-dev/evlayer"
	pathdiscovery "github.com/nullptr-dev/evlayer/discovery/path"
)

func exitIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "evlayerctl:", err)
		os.Exit(1)
	}
}

// cliHost opens device nodes directly; a real compositor host would
// mediate this through a privileged helper, but evlayerctl runs as
// whatever user invoked it.
type cliHost struct {
	screenW, screenH int
}

func (h *cliHost) OpenPath(path string, flags int) (uintptr, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, err
	}

	return uintptr(fd), nil
}

func (h *cliHost) CloseFD(fd uintptr) {}

func (h *cliHost) ScreenDimensions(dev *evlayer.Device) (int, int) {
	return h.screenW, h.screenH
}

func capabilityString(caps evlayer.Capability) string {
	var parts []string

	if caps.Has(evlayer.CapPointer) {
		parts = append(parts, "pointer")
	}
	if caps.Has(evlayer.CapKeyboard) {
		parts = append(parts, "keyboard")
	}
	if caps.Has(evlayer.CapTouch) {
		parts = append(parts, "touch")
	}

	if len(parts) == 0 {
		return "-"
	}

	var s string
	for i, p := range parts {
		if i > 0 {
			s += ","
		}
		s += p
	}

	return s
}

func main() {
	var (
		quirksPath string
		host       = &cliHost{screenW: 1920, screenH: 1080}
	)

	flag.StringVar(&quirksPath, "quirks", "", "path to a quirks YAML file")
	flag.Parse()

	ctx, err := evlayer.NewPathContext(host, log.Default())
	exitIf(err)

	defer ctx.Destroy()

	backend := pathdiscovery.NewBackend(ctx)
	exitIf(backend.Start())

	defer backend.Close()

	if quirksPath != "" {
		applyQuirks(ctx, quirksPath)
	}

	var table = tablewriter.NewWriter(os.Stdout)

	table.SetHeader([]string{"Devnode", "Name", "Bustype", "Capabilities"})

	for _, dev := range ctx.Devices() {
		table.Append([]string{
			dev.Devnode,
			dev.Name,
			fmt.Sprintf("0x%x", dev.Bustype),
			capabilityString(dev.Capabilities()),
		})
	}

	table.Render()
}
