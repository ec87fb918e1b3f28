package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/postalsys/udpfaf/internal/health"
	"github.com/postalsys/udpfaf/internal/loadtest"
	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/metrics"
	"github.com/postalsys/udpfaf/internal/payload"
	"github.com/postalsys/udpfaf/internal/udp"
)

// runState reports burst progress to the health server.
type runState struct {
	running atomic.Bool
}

func (r *runState) IsRunning() bool {
	return r.running.Load()
}

func burstCmd(flags *globalFlags) *cobra.Command {
	dest := &destFlags{}

	var (
		count       int
		perSecond   float64
		size        string
		duration    time.Duration
		metricsAddr string
		dumpMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "burst",
		Short: "Send a stream of datagrams for benchmarking",
		Long: `Send fixed-size datagrams from a single socket until --count datagrams
have been sent or --duration has elapsed, optionally rate limited.

The first 8 bytes of each datagram carry a big-endian sequence number so
a receiver ('udpfaf listen') can spot gaps.`,
		Example: `  udpfaf burst --to 127.0.0.1:9999 --count 10000 --size 1KiB
  udpfaf burst --to 10.0.0.5:9999 --rate 500 --duration 30s --metrics-addr 127.0.0.1:9110`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}

			addr, scfg, err := dest.resolve(rt.cfg, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			scfg.Logger = rt.logger
			scfg.Metrics = rt.metrics

			sizeBytes, err := payload.ParseSize(size)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			state := &runState{}

			if metricsAddr == "" && rt.cfg.Metrics.Enabled {
				metricsAddr = rt.cfg.Metrics.Address
			}
			if metricsAddr != "" {
				srvCfg := health.DefaultServerConfig()
				srvCfg.Address = metricsAddr

				srv := health.NewServer(srvCfg, rt.registry, state)
				if err := srv.Start(); err != nil {
					return fmt.Errorf("failed to start metrics server: %w", err)
				}
				defer srv.Stop()

				rt.logger.Info("metrics endpoint listening",
					logging.KeyLocalAddr, srv.Address().String())
			}

			s, err := udp.NewWithContext(ctx, addr.Addr().String(), int(addr.Port()), scfg)
			if err != nil {
				return err
			}
			defer s.Close()

			gen := loadtest.NewDatagramLoadGenerator(count, sizeBytes, perSecond, duration)

			state.running.Store(true)
			m, err := gen.Run(ctx, s)
			state.running.Store(false)
			if err != nil {
				return err
			}

			rt.logger.Info("burst finished",
				logging.KeyRemoteAddr, addr.String(),
				logging.KeyCount, m.Sent,
				logging.KeyBytes, m.Bytes,
				logging.KeyDuration, m.Duration)

			fmt.Fprintln(cmd.OutOrStdout(), m)

			if dumpMetrics {
				return metrics.WriteText(cmd.OutOrStdout(), rt.registry)
			}
			return nil
		},
	}

	dest.register(cmd)
	cmd.Flags().IntVar(&count, "count", 0, "Number of datagrams to send (0 = until --duration)")
	cmd.Flags().Float64Var(&perSecond, "rate", 0, "Datagrams per second (0 = unlimited)")
	cmd.Flags().StringVar(&size, "size", "64B", "Datagram size (e.g., 512B, 1KiB, 64KB)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = until --count)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address while running")
	cmd.Flags().BoolVar(&dumpMetrics, "dump-metrics", false, "Print the final udpfaf metrics in Prometheus text format")

	return cmd
}
