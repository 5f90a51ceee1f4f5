package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"EpiCast/internal/domain/models"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import series files into storage",
}

var importLabCmd = &cobra.Command{
	Use:   "lab <file.csv>",
	Short: "Import a lab tests CSV for one disease",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		diseaseArg, _ := cmd.Flags().GetString("disease")
		disease, ok := models.ParseDisease(diseaseArg)
		if !ok {
			return fmt.Errorf("unknown disease %q", diseaseArg)
		}

		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		summary, err := cli.Importer.ImportLab(cmd.Context(), f, disease)
		if err != nil {
			return err
		}
		printSummary(cmd, summary.Kind, string(summary.Disease), summary.Rows, summary.Imported, summary.RowErrors)
		return nil
	},
}

var importPharmacyCmd = &cobra.Command{
	Use:   "pharmacy <file.csv>",
	Short: "Import a pharmacy sales CSV, classified against the medicine catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		summary, err := cli.Importer.ImportPharmacy(cmd.Context(), f)
		if err != nil {
			return err
		}
		disease := string(summary.Disease)
		if disease == "" {
			disease = "(unclassified)"
		}
		printSummary(cmd, summary.Kind, disease, summary.Rows, summary.Imported, summary.RowErrors)
		return nil
	},
}

func printSummary(cmd *cobra.Command, kind, disease string, rows, imported int, rowErrors []string) {
	cmd.Printf("%s import: disease=%s rows=%d imported=%d errors=%d\n", kind, disease, rows, imported, len(rowErrors))
	for _, e := range rowErrors {
		cmd.Println("  ", e)
	}
}

func init() {
	importLabCmd.Flags().String("disease", "", "disease the lab file belongs to (malaria, dengue, diarrhoea)")
	_ = importLabCmd.MarkFlagRequired("disease")

	importCmd.AddCommand(importLabCmd)
	importCmd.AddCommand(importPharmacyCmd)
}
