package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available plugins and configured bots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.wire(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Plugins: %s\n", strings.Join(a.registry.Plugins(), ", "))

			configs := a.registry.Configs()
			if len(configs) == 0 {
				fmt.Fprintf(out, "No bot configs in %s. Run 'webot init' to create samples.\n", a.service.Dir())
				return nil
			}
			fmt.Fprintln(out, "Configured bots:")
			for name, path := range a.service.ListAll() {
				fmt.Fprintf(out, "  %s\t%s\n", name, path)
			}
			return nil
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <bot>",
		Short: "Print the visible conversation titles from the bot's sidebar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wire(); err != nil {
				return err
			}

			bot, err := a.createBot(args[0], nil)
			if err != nil {
				return err
			}
			defer bot.Close()

			titles, err := bot.History(limit)
			if err != nil {
				return err
			}
			if len(titles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "(no history visible)")
				return nil
			}
			for _, title := range titles {
				fmt.Fprintln(cmd.OutOrStdout(), title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum entries to print")
	return cmd
}
