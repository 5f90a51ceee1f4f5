package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"EpiCast/internal/domain/models"
	"EpiCast/internal/usecase"
	"EpiCast/pkg/util"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a model over a custom window and forecast the window after it",
	Long: `Creates a training session and runs it synchronously: trains a fresh
model over [--train-start, --train-end], saves the artifact, and stores
forecasts for [--forecast-start, --forecast-end]. The forecast must start
the day after training ends.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		diseaseArg, _ := cmd.Flags().GetString("disease")
		disease, ok := models.ParseDisease(diseaseArg)
		if !ok {
			return fmt.Errorf("unknown disease %q", diseaseArg)
		}

		req := usecase.SessionRequest{Disease: disease}
		for _, bind := range []struct {
			flag string
			dst  *time.Time
		}{
			{"train-start", &req.TrainingStart},
			{"train-end", &req.TrainingEnd},
			{"forecast-start", &req.ForecastStart},
			{"forecast-end", &req.ForecastEnd},
		} {
			raw, _ := cmd.Flags().GetString(bind.flag)
			t, ok := util.ParseDate(raw)
			if !ok {
				return fmt.Errorf("--%s: unparseable date %q", bind.flag, raw)
			}
			*bind.dst = t
		}

		cli, err := initCLI()
		if err != nil {
			return err
		}
		defer cli.Close()

		sess, err := cli.Sessions.Submit(cmd.Context(), req)
		if err != nil {
			if sess != nil {
				cmd.Printf("session %s failed: %v\n", sess.ID, err)
			}
			return err
		}

		cmd.Printf("session %s completed: disease=%s forecasts=%d\n", sess.ID, sess.Disease, sess.ForecastCount)
		if sess.MAE != nil {
			cmd.Printf("forecast MAE: %.2f\n", *sess.MAE)
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().String("disease", "", "disease to train (malaria, dengue, diarrhoea)")
	trainCmd.Flags().String("train-start", "", "training window start (YYYY-MM-DD)")
	trainCmd.Flags().String("train-end", "", "training window end (YYYY-MM-DD)")
	trainCmd.Flags().String("forecast-start", "", "forecast window start (YYYY-MM-DD)")
	trainCmd.Flags().String("forecast-end", "", "forecast window end (YYYY-MM-DD)")
	for _, f := range []string{"disease", "train-start", "train-end", "forecast-start", "forecast-end"} {
		_ = trainCmd.MarkFlagRequired(f)
	}
}
