package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scribe/internal/config"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/pkg/database"
	"github.com/JaimeStill/scribe/pkg/lifecycle"
)

func ingestCmd(flags *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load messages from a JSON Lines export as PENDING",
		Long:  `Ingest reads one JSON message per line and stores each as PENDING.
Messages whose ID already exists are skipped, so re-running an export is safe.
Use --file - to read from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg, err := config.LoadDatabase(flags.configPath)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			msgs, err := messages.ReadJSONL(in)
			if err != nil {
				return err
			}

			logger := infrastructure.NewLogger(slog.LevelInfo)
			lc := lifecycle.New()

			db, err := database.New(dbCfg, logger)
			if err != nil {
				return err
			}
			if err := db.Start(lc); err != nil {
				return err
			}
			defer lc.Shutdown(10 * time.Second)
			lc.WaitForStartup()

			if !db.Ready() {
				return errors.New("database unavailable")
			}

			n, err := messages.New(db.Connection(), logger).Ingest(cmd.Context(), msgs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d of %d messages\n", n, len(msgs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON Lines file of messages")
	return cmd
}
