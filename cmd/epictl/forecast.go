package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"EpiCast/internal/domain/models"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Regenerate stored forecasts from the latest saved models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		diseaseArg, _ := cmd.Flags().GetString("disease")
		if diseaseArg == "" {
			return cli.Pipeline.RegenerateAll(cmd.Context())
		}

		disease, ok := models.ParseDisease(diseaseArg)
		if !ok {
			return fmt.Errorf("unknown disease %q", diseaseArg)
		}
		n, err := cli.Pipeline.Regenerate(cmd.Context(), disease)
		if err != nil {
			return err
		}
		cmd.Printf("stored %d forecast days for %s\n", n, disease)
		return nil
	},
}

func init() {
	forecastCmd.Flags().String("disease", "", "regenerate one disease only (default: all)")
}
