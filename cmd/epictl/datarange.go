package main

import (
	"time"

	"github.com/spf13/cobra"
)

var dataRangeCmd = &cobra.Command{
	Use:   "datarange",
	Short: "Show stored lab and sales date ranges per disease",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		ranges, err := cli.DataRange.All(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range ranges {
			cmd.Printf("%s:\n", r.Disease)
			cmd.Printf("  lab:       %s\n", fmtRange(r.LabStart, r.LabEnd))
			cmd.Printf("  sales:     %s\n", fmtRange(r.SalesStart, r.SalesEnd))
			if r.Empty() {
				cmd.Println("  trainable: (no overlap)")
			} else {
				cmd.Printf("  trainable: %s\n", fmtRange(r.TrainableStart, r.TrainableEnd))
			}
		}
		return nil
	},
}

func fmtRange(from, to time.Time) string {
	if from.IsZero() {
		return "(no data)"
	}
	return from.Format("2006-01-02") + " .. " + to.Format("2006-01-02")
}
