package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ja7ad/efficiency/pkg/accel"
	"github.com/ja7ad/efficiency/pkg/system/gpu"
)

// newDetectCmd reports what the tool would assume about this host: the
// accelerator class, visible NVIDIA devices, and RAPL zones.
func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show the detected accelerator and available power sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			class, detail := accel.Detect()
			fmt.Printf("%s %s (%s)\n", labelColor.Sprint("accelerator:"), class, detail)

			if gpu.Available() {
				readings, err := gpu.Query(cmd.Context())
				if err != nil {
					badColor.Printf("nvidia-smi present but unusable: %v\n", err)
				} else {
					tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "GPU\tNAME\tDRAW\tLIMIT\tUTIL")
					for _, r := range readings {
						fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f%%\n",
							r.Index, r.Name, r.PowerDraw.Humanized(), r.PowerLimit.Humanized(), r.Utilization*100)
					}
					tw.Flush()
				}
			}

			if _, detail, err := raplSource(); err == nil {
				goodColor.Println(detail)
			} else {
				fmt.Printf("rapl: unavailable (%v)\n", err)
			}

			fmt.Printf("%s %s\n", labelColor.Sprint("static profile:"), deviceLine(defaultProfileFor(class)))
			return nil
		},
	}
}

// defaultProfileFor maps a detected class onto its builtin profile; an
// unknown class falls back to the cpu assumption.
func defaultProfileFor(class accel.Class) accel.Profile {
	profiles := accel.Builtin()
	if p, ok := profiles[class.String()]; ok {
		return p
	}
	return profiles["cpu"]
}
