package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/postalsys/udpfaf/internal/logging"
	"github.com/postalsys/udpfaf/internal/payload"
	"github.com/postalsys/udpfaf/internal/udp"
)

// payloadFlags selects where the datagram payload comes from.
type payloadFlags struct {
	hex    string
	hexSet bool
	file   string
	lines  bool
	repeat int
}

func sendCmd(flags *globalFlags) *cobra.Command {
	dest := &destFlags{}
	pf := &payloadFlags{}

	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send a datagram",
		Long: `Send one UDP datagram to an IPv4 destination.

The payload is taken from the arguments, --hex, --file, or standard input
when it is not a terminal. With --lines every input line is sent as its
own datagram.

Delivery is never reported: the command exits 0 once the payload has been
handed to the socket, even if the network drops it.`,
		Example: `  udpfaf send --to 192.168.1.44:8861 "The message!"
  echo -n ping | udpfaf send --to 127.0.0.1:9999
  udpfaf send --to 192.168.1.255:9999 --broadcast --hex "de ad be ef"
  tail -f app.log | udpfaf send -c udpfaf.yaml --target syslog --lines`,
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

			pf.hexSet = cmd.Flags().Changed("hex")
			if pf.repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1")
			}

			// Payload errors are reported before any socket exists.
			var data []byte
			if !pf.lines {
				data, err = readPayload(pf, args, cmd.InOrStdin(), stdinIsTerminal())
				if err != nil {
					return err
				}
			}

			s, err := udp.NewWithContext(cmd.Context(), addr.Addr().String(), int(addr.Port()), scfg)
			if err != nil {
				return err
			}
			defer s.Close()

			if pf.lines {
				return sendLines(s, pf, cmd.InOrStdin())
			}

			for i := 0; i < pf.repeat; i++ {
				s.Send(data)
			}

			rt.logger.Debug("payload handed to socket",
				logging.KeyRemoteAddr, addr.String(),
				logging.KeyCount, pf.repeat,
				logging.KeyBytes, len(data))
			return nil
		},
	}

	dest.register(cmd)
	cmd.Flags().StringVar(&pf.hex, "hex", "", "Payload as hex bytes (whitespace and 0x prefix allowed)")
	cmd.Flags().StringVarP(&pf.file, "file", "f", "", "Read the payload from a file")
	cmd.Flags().BoolVarP(&pf.lines, "lines", "l", false, "Send each input line as a separate datagram")
	cmd.Flags().IntVarP(&pf.repeat, "repeat", "n", 1, "Send the payload this many times")

	return cmd
}

// readPayload picks exactly one payload source.
func readPayload(pf *payloadFlags, args []string, stdin io.Reader, stdinTTY bool) ([]byte, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if pf.hexSet {
		sources++
	}
	if pf.file != "" {
		sources++
	}
	if sources > 1 {
		return nil, errors.New("use only one of message arguments, --hex or --file")
	}

	switch {
	case len(args) > 0:
		data := payload.FromText(strings.Join(args, " "))
		if len(data) > payload.MaxIPv4Payload {
			return nil, fmt.Errorf("payload exceeds %s", payload.FormatSize(payload.MaxIPv4Payload))
		}
		return data, nil
	case pf.hexSet:
		return payload.FromHex(pf.hex)
	case pf.file != "":
		return payload.FromFile(pf.file)
	case !stdinTTY:
		return payload.FromReader(stdin)
	default:
		return nil, errors.New("no payload: pass a message, --hex, --file or pipe data on stdin")
	}
}

// sendLines sends one datagram per line of --file or stdin.
func sendLines(s *udp.Sender, pf *payloadFlags, stdin io.Reader) error {
	r := stdin
	if pf.file != "" {
		f, err := os.Open(pf.file)
		if err != nil {
			return fmt.Errorf("failed to open payload file: %w", err)
		}
		defer f.Close()
		r = f
	}

	return payload.Lines(r, func(line []byte) {
		for i := 0; i < pf.repeat; i++ {
			s.Send(line)
		}
	})
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
