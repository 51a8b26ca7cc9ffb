package main

import (
	"github.com/spf13/cobra"

	"bayerbg/pkg/config"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bayerbg",
	Short: "Bayer channel tools for raw astronomical frames",
	Long: `bayerbg works on raw RGGB Bayer frames: it classifies pixel colors,
cuts superpixel-aligned stamps and estimates per-channel sky backgrounds,
writing the results as FITS files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "bayerbg.yaml", "Path to YAML config file")
}
