package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/webot"
)

type sendFlags struct {
	files        []string
	dir          string
	timeout      time.Duration
	headless     bool
	noLoginState bool
	noSave       bool
}

func newSendCmd(a *app) *cobra.Command {
	flags := &sendFlags{}

	cmd := &cobra.Command{
		Use:   "send <bot> <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wire(); err != nil {
				return err
			}

			bot, err := a.createBot(args[0], flags)
			if err != nil {
				return err
			}
			defer bot.Close()

			reply, err := bot.Send(args[1], webot.SendOptions{
				Files:   flags.files,
				Dir:     flags.dir,
				Timeout: flags.timeout,
			})
			if err != nil {
				return err
			}
			if reply == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "(no reply before timeout)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&flags.files, "file", "f", nil, "attach a file (repeatable)")
	cmd.Flags().StringVarP(&flags.dir, "dir", "d", "", "attach a whole directory with its manifest")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "override the reply wait budget (e.g. 10m)")
	cmd.Flags().BoolVar(&flags.headless, "headless", false, "run the browser without a window")
	cmd.Flags().BoolVar(&flags.noLoginState, "no-login-state", false, "do not restore or persist login state")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "do not write the reply to the output directory")
	return cmd
}

// createBot assembles a bot and applies flag overrides to its config.
func (a *app) createBot(name string, flags *sendFlags) (*webot.Bot, error) {
	bot, err := a.registry.Create(name)
	if err != nil {
		return nil, err
	}

	cfg := bot.Config()
	if flags != nil {
		if flags.headless {
			cfg.Browser.Headless = true
		}
		if flags.noLoginState {
			cfg.Features[config.FeatureSaveLoginState] = false
		}
		if flags.noSave {
			cfg.Features[config.FeatureSaveConversations] = false
		}
	}

	bot.LoginPrompt = func(loginURL string) {
		fmt.Printf("Manual login required. Complete the sign-in in the browser window")
		if loginURL != "" {
			fmt.Printf(" (%s)", loginURL)
		}
		fmt.Println("; the session continues automatically once you are in.")
	}
	return bot, nil
}
