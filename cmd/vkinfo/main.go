// Command vkinfo lists the physical devices Vulkan reports and whether the
// renderer could use each one to present to an SDL window.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"

	"github.com/cgame/renderer/platform"
	"github.com/cgame/renderer/render"
)

func main() {
	runtime.LockOSThread()

	validation := flag.Bool("validation", false, "enable the Khronos validation layer")
	flag.Parse()

	window, err := platform.OpenHiddenWindow("vkinfo")
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
	defer window.Close()

	loader, err := window.NewLoader()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	cfg := render.DefaultConfig()
	cfg.EnableValidation = *validation

	reports, err := render.ListDevices(loader, window, cfg)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	printReports(os.Stdout, reports)
}

func printReports(w io.Writer, reports []render.DeviceReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "no physical devices")
		return
	}

	for i, report := range reports {
		if !report.Suitable() {
			fmt.Fprintf(w, "%d: %s: unsuitable: %s\n", i, report.Name, report.Reason)
			continue
		}

		fmt.Fprintf(w, "%d: %s: graphics family %d, present family %d\n",
			i, report.Name, *report.QueueFamilies.Graphics, *report.QueueFamilies.Present)

		surface := render.ChooseSurfaceFormat(report.Support.Formats)
		fmt.Fprintf(w, "   format %d, color space %d, %d formats\n",
			surface.Format, surface.ColorSpace, len(report.Support.Formats))
		fmt.Fprintf(w, "   present mode %s of %v\n",
			render.ChoosePresentMode(report.Support.PresentModes), report.Support.PresentModes)
	}
}
