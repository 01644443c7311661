package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mashangworks/webot/pkg/webot"
)

func newChatCmd(a *app) *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "chat <bot>",
		Short: "Interactive session: each line is sent, each reply printed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wire(); err != nil {
				return err
			}

			bot, err := a.createBot(args[0], flags)
			if err != nil {
				return err
			}
			defer bot.Close()

			if err := bot.EnsureReady(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chatting with %s. /exit to quit.\n", bot.Name())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/exit" || line == "/quit" {
					break
				}

				reply, err := bot.Send(line, webot.SendOptions{Timeout: flags.timeout})
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "send failed: %v\n", err)
					continue
				}
				if reply == "" {
					fmt.Fprintln(out, "(no reply before timeout)")
					continue
				}
				fmt.Fprintf(out, "\n%s\n\n", reply)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "override the reply wait budget per message")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "run the browser without a window")
	cmd.Flags().BoolVar(&flags.noLoginState, "no-login-state", false, "do not restore or persist login state")
	return cmd
}
