// Package main provides the CLI entry point for udpfaf.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/postalsys/udpfaf/internal/config"
	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/metrics"
	"github.com/postalsys/udpfaf/internal/sysinfo"
	"github.com/postalsys/udpfaf/internal/wizard"
)

// globalFlags holds persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// session bundles what a subcommand needs once flags are parsed.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "udpfaf",
		Short: "udpfaf - Fire-and-forget UDP datagram sender",
		Long: `udpfaf sends single UDP datagrams to IPv4 destinations without
waiting for, or reporting, delivery.

Each send is one datagram. Send failures on the network are silently
dropped, which makes udpfaf suitable for telemetry, syslog-style
logging and discovery broadcasts.`,
		Version:       sysinfo.Collect().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format override (text, json, console)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(sendCmd(flags))
	rootCmd.AddCommand(burstCmd(flags))
	rootCmd.AddCommand(listenCmd(flags))
	rootCmd.AddCommand(probeCmd(flags))
	rootCmd.AddCommand(configCmd(flags))
	rootCmd.AddCommand(interfacesCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// setup loads the config file (if any), applies flag overrides and builds
// the logger and a private metrics registry.
func (f *globalFlags) setup() (*session, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if f.logLevel != "" {
		if !logging.IsValidLevel(f.logLevel) {
			return nil, fmt.Errorf("invalid --log-level %q", f.logLevel)
		}
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		if !logging.IsValidFormat(f.logFormat) {
			return nil, fmt.Errorf("invalid --log-format %q", f.logFormat)
		}
		cfg.Log.Format = f.logFormat
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &session{
		cfg:      cfg,
		logger:   logging.NewLogger(cfg.Log.Level, cfg.Log.Format),
		metrics:  metrics.NewMetricsWithRegistry(reg),
		registry: reg,
	}, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Long:  "Run the setup wizard to define named targets, logging and metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wizard.New().Run()
			return err
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Load the configuration file, apply flag overrides and print the result as YAML.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rt.cfg.String())
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			info := sysinfo.Collect()
			fmt.Fprintf(cmd.OutOrStdout(), "udpfaf %s (%s %s/%s)\n", info.Version, info.GoVersion, info.OS, info.Arch)
		},
	}
}
