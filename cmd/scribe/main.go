// Command scribe turns community messages into reviewed documentation
// proposals. It serves the API with scheduled runs, runs the pipeline once,
// and ingests message exports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scribe/internal/config"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "scribe",
		Short: "Documentation proposals from community conversations",
		Long:  `Scribe reads community messages in time windows, groups them into
conversations, and proposes documentation changes grounded in the
existing documentation set.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.BaseConfigFile, "Config file path (TOML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(flags),
		runCmd(flags),
		ingestCmd(flags),
		versionCmd(flags),
	)

	return cmd
}

func (f *globalFlags) load() (*config.Config, error) {
	if f.logLevel != "" {
		if err := os.Setenv(config.EnvScribeLogLevel, f.logLevel); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func versionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scribe version %s (env: %s)\n", cfg.Version, cfg.Env())
			return nil
		},
	}
}
