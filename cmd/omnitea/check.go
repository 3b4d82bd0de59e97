package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "validate configuration and render pipeline prerequisites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			fmt.Println("config")
			fmt.Println("  channel:", cfg.Channel)
			fmt.Println("  endpoint:", cfg.Endpoint)
			fmt.Println("  model:", cfg.Model)
			fmt.Println("  renderer:", cfg.Renderer)
			fmt.Println("  budget:", cfg.Budget())

			fmt.Println("credentials")
			fmt.Println("  DISCORD_TOKEN:", presence(os.Getenv("DISCORD_TOKEN")))
			fmt.Println("  OPENAI_KEY:", presence(os.Getenv("OPENAI_KEY")))

			fmt.Println("render pipeline")
			for _, binary := range []string{"pandoc", "xelatex", "convert"} {
				fmt.Printf("  %s: %s\n", binary, binaryStatus(binary))
			}

			return nil
		},
	}
}

func presence(value string) string {
	if value == "" {
		return "missing"
	}

	return "set"
}

func binaryStatus(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return "not found"
	}

	return path
}
