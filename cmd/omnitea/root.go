package main

import (
	"fmt"
	"os"

	"github.com/erg0nix/omnitea/internal/config"

	"github.com/spf13/cobra"
)

func execute() {
	rootCmd := &cobra.Command{
		Use:   "omnitea",
		Short: "omnitea Discord assistant",
		Args:  cobra.NoArgs,
		RunE:  runBot,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.Flags().String("channel", "", "guild channel name to answer in")
	rootCmd.Flags().String("endpoint", "", "completion backend endpoint")
	rootCmd.Flags().String("model", "", "completion model name")
	rootCmd.Flags().String("renderer", "", "math renderer: markdown or latex")

	rootCmd.AddCommand(newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	configPath := path

	if configPath == "" {
		configPath = config.DefaultPath()
	}

	return config.LoadOrCreate(configPath)
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
