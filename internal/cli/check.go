package cli

import (
	"fmt"

	"trino-query-log/internal/config"
	"trino-query-log/internal/logger"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration",
		Long:  "Parse the listener config and the sink config it points to, print the effective values and exit non-zero on any error.",
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
			sinkCfg, err := loadSinkConfig(props.ConfigFileLocation, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, props.String())
			fmt.Fprintf(out, "sink.output=%s\n", sinkCfg.Output)
			fmt.Fprintf(out, "sink.archive.enabled=%t\n", sinkCfg.Archive.Enabled)
			if sinkCfg.Archive.Enabled {
				fmt.Fprintf(out, "sink.archive.target=s3://%s/%s\n", sinkCfg.Archive.Bucket, sinkCfg.Archive.RawPrefix)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "listener config file (default $LISTENER_CONFIG)")

	return cmd
}
