package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/postalsys/udpfaf/internal/payload"
	"github.com/postalsys/udpfaf/internal/probe"
	"github.com/postalsys/udpfaf/internal/udp"
)

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func probeCmd(flags *globalFlags) *cobra.Command {
	var (
		size      string
		timeout   time.Duration
		broadcast bool
		ttl       int
		tos       int
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that this host can send datagrams",
		Long: `Send one datagram through a sender to a listener on the loopback
interface and confirm it arrives intact. Use it to check that the socket
options you plan to use (--ttl, --tos, --broadcast) are accepted locally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}

			sizeBytes, err := payload.ParseSize(size)
			if err != nil {
				return err
			}

			result := probe.Probe(cmd.Context(), probe.Options{
				Size:    sizeBytes,
				Timeout: timeout,
				Sender: udp.Config{
					Broadcast: broadcast,
					TTL:       ttl,
					TOS:       tos,
					Logger:    rt.logger,
					Metrics:   rt.metrics,
				},
			})

			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "%s %s\n", failStyle.Render("FAILED"), result.ErrorDetail)
				return result.Error
			}

			fmt.Fprintf(out, "%s %s via %s in %s\n",
				okStyle.Render("OK"),
				payload.FormatSize(int64(result.Bytes)),
				result.Address,
				result.RTT.Round(time.Microsecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&size, "size", "32B", "Probe payload size")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Time to wait for the probe datagram")
	cmd.Flags().BoolVarP(&broadcast, "broadcast", "b", false, "Probe with broadcast enabled")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "IP time-to-live")
	cmd.Flags().IntVar(&tos, "tos", 0, "IP type-of-service byte")

	return cmd
}
