package cli

import (
	"fmt"

	"trino-query-log/internal/config"
	"trino-query-log/internal/logger"
	"trino-query-log/internal/replay"

	"github.com/spf13/cobra"
)

func newReplayCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "replay PATTERN...",
		Short: "Replay recorded events through the listener",
		Long:  "Read NDJSON event envelopes ({\"kind\":...,\"event\":{...}}) from files matching the glob patterns (** supported) and run them through the same filters and sink as serve.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg, cmd.ErrOrStderr())

			props, err := config.LoadPropertiesFile(configPath(configFile, cfg))
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, props, log)
			if err != nil {
				return err
			}

			st, runErr := replay.Run(cmd.Context(), p.listener, args, log)
			if err := p.Close(); err != nil && runErr == nil {
				runErr = fmt.Errorf("close sink: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "files=%d delivered=%d skipped=%d\n", st.Files, st.Delivered, st.Skipped)
			return runErr
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "listener config file (default $LISTENER_CONFIG)")

	return cmd
}
