package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scribe/internal/api"
	"github.com/JaimeStill/scribe/internal/infrastructure"
	"github.com/JaimeStill/scribe/internal/pipeline"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var stream string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}
			if err := infra.Start(); err != nil {
				return err
			}
			defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())
			infra.Lifecycle.WaitForStartup()

			if !infra.Database.Ready() {
				return errors.New("database unavailable")
			}

			domain := api.NewDomain(api.NewRuntime(cfg, infra))
			ctx := cmd.Context()

			var res *pipeline.RunResult
			if stream != "" {
				res, err = domain.Runner.RunStream(ctx, stream)
			} else {
				res, err = domain.Runner.RunAll(ctx)
			}

			if res != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil {
					return encErr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&stream, "stream", "s", "", "Process only this stream")
	return cmd
}
