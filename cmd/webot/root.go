package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mashangworks/webot/pkg/config"
	"github.com/mashangworks/webot/pkg/logging"
	"github.com/mashangworks/webot/pkg/webot"

	// Site plugins register themselves on import.
	_ "github.com/mashangworks/webot/pkg/webot/deepseek"
	_ "github.com/mashangworks/webot/pkg/webot/doubao"
	_ "github.com/mashangworks/webot/pkg/webot/qianwen"
)

// app holds the wiring shared by all subcommands. The registry is built
// lazily so commands that never touch configs (version) stay cheap.
type app struct {
	configDir string

	registry *webot.Registry
	service  *config.Service
	log      *logging.Logger
}

func (a *app) wire() error {
	if a.registry != nil {
		return nil
	}
	svc, err := config.NewService(a.configDir)
	if err != nil {
		return fmt.Errorf("config directory: %w", err)
	}
	a.service = svc

	log, err := logging.NewLogger("cli")
	if err != nil {
		log = logging.Discard("cli")
	}
	a.log = log
	a.registry = webot.NewDefaultRegistry(svc, a.log)
	return nil
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "webot",
		Short:         "Drive browser-based AI chat products from the terminal",
		Long:          "webot sends messages to browser-only AI chat products (DeepSeek, Qwen, Doubao) through a real automated browser and returns their replies, with optional file and directory attachments.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			// A missing .env is fine; explicit env always wins.
			_ = godotenv.Load()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config-dir", "configs", "directory holding bot config files")

	rootCmd.AddCommand(
		newSendCmd(a),
		newChatCmd(a),
		newListCmd(a),
		newInitCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
			return err
		},
	}
}

// version is set at build time via -ldflags.
var version = "dev"
