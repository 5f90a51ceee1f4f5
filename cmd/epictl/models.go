package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"EpiCast/internal/domain/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List saved model artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		var disease models.Disease
		if diseaseArg, _ := cmd.Flags().GetString("disease"); diseaseArg != "" {
			d, ok := models.ParseDisease(diseaseArg)
			if !ok {
				return fmt.Errorf("unknown disease %q", diseaseArg)
			}
			disease = d
		}
		limit, _ := cmd.Flags().GetInt("limit")

		metas, err := cli.ModelMeta.List(cmd.Context(), disease, limit)
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			cmd.Println("no models trained yet")
			return nil
		}
		for _, m := range metas {
			cmd.Printf("%s  %-10s %-9s mae=%-8.2f trained=%s  %s\n",
				m.ID, m.Disease, m.Status, m.TrainMAE,
				m.TrainedAt.Format("2006-01-02 15:04"), m.ArtifactPath)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().String("disease", "", "filter by disease")
	modelsCmd.Flags().Int("limit", 20, "maximum rows")
}
