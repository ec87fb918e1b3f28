package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/postalsys/udpfaf/internal/loadtest"
	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/payload"
	"github.com/postalsys/udpfaf/internal/probe"
	"github.com/postalsys/udpfaf/internal/recovery"
)

func listenCmd(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		jsonOut bool
		showSeq bool
		maxSize string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print datagrams received on a local port",
		Long: `Bind a UDP port and print every datagram that arrives, for checking
what a sender actually put on the wire. Stops on Ctrl+C.`,
		Example: `  udpfaf listen --addr 0.0.0.0:9999
  udpfaf listen --addr 127.0.0.1:9999 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := flags.setup()
			if err != nil {
				return err
			}

			bufSize := probe.DefaultMaxDatagramSize
			if maxSize != "" {
				if bufSize, err = payload.ParseSize(maxSize); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := probe.Bind(ctx, probe.ListenOptions{
				Address:         addr,
				MaxDatagramSize: bufSize,
				Metrics:         rt.metrics,
			})
			if err != nil {
				return err
			}
			defer l.Close()

			rt.logger.Info("listening", logging.KeyLocalAddr, l.Addr().String())

			events := make(chan probe.DatagramEvent, 64)
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				defer close(events)
				return recovery.Run(rt.logger, "probe-listener", func() error {
					return l.Serve(gctx, events)
				})
			})

			g.Go(func() error {
				out := cmd.OutOrStdout()
				for ev := range events {
					if err := printEvent(out, ev, jsonOut, showSeq); err != nil {
						l.Close()
						return err
					}
				}
				return nil
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "0.0.0.0:9999", "Local address to bind")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print one JSON object per datagram")
	cmd.Flags().BoolVar(&showSeq, "seq", false, "Show the sequence number written by 'udpfaf burst'")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Receive buffer size; longer datagrams are truncated")

	return cmd
}

// printEvent writes one received datagram as text or JSON.
func printEvent(w io.Writer, ev probe.DatagramEvent, jsonOut, showSeq bool) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(ev)
	}

	seq := ""
	if n, ok := loadtest.Sequence(ev.Payload); ok && showSeq {
		seq = fmt.Sprintf(" seq=%d", n)
	}

	_, err := fmt.Fprintf(w, "%s %s %s%s  %s\n",
		ev.Timestamp.Format(time.RFC3339Nano),
		ev.RemoteAddr,
		payload.FormatSize(int64(ev.Size)),
		seq,
		payload.Printable(ev.Payload))
	return err
}
