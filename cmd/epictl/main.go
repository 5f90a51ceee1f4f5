// epictl is the management CLI: file imports, synchronous training runs,
// forecast regeneration and data inspection against the same storage the
// service uses.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"EpiCast/internal/di"
	"EpiCast/pkg/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "epictl",
	Short:         "Disease forecasting management CLI",
	Long:          "epictl imports lab and pharmacy series, trains forecast models and regenerates stored forecasts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config/config.yaml", "config file path")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(dataRangeCmd)
}

// initCLI loads config and wires the CLI bundle. Callers must Close it.
func initCLI() (*di.CLI, error) {
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return nil, err
	}
	return di.InitializeCLI(cfg)
}
