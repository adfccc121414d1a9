package main

import (
	"github.com/spf13/cobra"

	"jobpool/internal/config"
)

type serviceOptions struct {
	port        string
	metricsPort string
	maxJobs     int
	configFile  string
}

func rootCmd() *cobra.Command {
	opts := &serviceOptions{}

	c := &cobra.Command{
		Use:     "pool-service",
		Short:   "HTTP server running echo and sleep jobs in a fixed-capacity pool",
		Example: "pool-service --port 8080 --max-jobs 4",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			svcCfg := config.LoadServiceConfig()
			poolCfg := config.LoadPoolConfig()

			if opts.configFile != "" {
				if err := config.ApplyFile(opts.configFile, svcCfg, poolCfg); err != nil {
					return err
				}
			}

			// Flags outrank both the environment and the config file.
			if cmd.Flags().Changed("port") {
				svcCfg.Port = opts.port
			}
			if cmd.Flags().Changed("metrics-port") {
				svcCfg.MetricsPort = opts.metricsPort
			}
			if cmd.Flags().Changed("max-jobs") {
				poolCfg.MaxJobs = opts.maxJobs
			}

			return runService(svcCfg, poolCfg)
		},
	}

	c.Flags().StringVar(&opts.port, "port", "8080", "API server port")
	c.Flags().StringVar(&opts.metricsPort, "metrics-port", "9090", "Metrics server port")
	c.Flags().IntVar(&opts.maxJobs, "max-jobs", 4, "Hard ceiling on concurrently tracked jobs")
	c.Flags().StringVar(&opts.configFile, "config", "", "Path to optional YAML config file")

	return c
}
