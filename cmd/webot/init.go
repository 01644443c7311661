package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sampleBots are the products shipped with ready-made configs.
var sampleBots = []string{"deepseek", "qianwen", "doubao"}

func newInitCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "init [bot...]",
		Short: "Write sample bot configs into the config directory",
		Long:  "Writes ready-made configs for the supported products. With no arguments all samples are created; pass bot names to create a subset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wire(); err != nil {
				return err
			}

			bots := args
			if len(bots) == 0 {
				bots = sampleBots
			}

			for _, bot := range bots {
				path, err := a.service.CreateSample(bot, format)
				if err != nil {
					return fmt.Errorf("sample for %s: %w", bot, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "config file format (yaml or json)")
	return cmd
}
