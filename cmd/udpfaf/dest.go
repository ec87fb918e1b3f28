package main

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/spf13/cobra"

	"github.com/postalsys/udpfaf/internal/config"
	"github.com/postalsys/udpfaf/internal/udp"
)

// destFlags selects a destination and socket options for send and burst.
type destFlags struct {
	to        string
	target    string
	broadcast bool
	ttl       int
	tos       int
}

func (d *destFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.to, "to", "", "Destination as ipv4:port")
	cmd.Flags().StringVarP(&d.target, "target", "t", "", "Named target from the config file")
	cmd.Flags().BoolVarP(&d.broadcast, "broadcast", "b", false, "Allow sending to broadcast addresses")
	cmd.Flags().IntVar(&d.ttl, "ttl", 0, "IP time-to-live (0 keeps the system default)")
	cmd.Flags().IntVar(&d.tos, "tos", 0, "IP type-of-service byte (0 keeps the system default)")
}

// resolve returns the destination and sender options. Flags set on the
// command line override the values of a named target.
func (d *destFlags) resolve(cfg *config.Config, changed func(name string) bool) (netip.AddrPort, udp.Config, error) {
	switch {
	case d.to != "" && d.target != "":
		return netip.AddrPort{}, udp.Config{}, errors.New("--to and --target are mutually exclusive")
	case d.to == "" && d.target == "":
		return netip.AddrPort{}, udp.Config{}, errors.New("a destination is required: use --to ip:port or --target name")
	}

	var (
		dest netip.AddrPort
		scfg = udp.DefaultConfig()
		err  error
	)

	if d.target != "" {
		t, ok := cfg.Target(d.target)
		if !ok {
			return netip.AddrPort{}, udp.Config{}, fmt.Errorf("unknown target %q", d.target)
		}
		if dest, err = t.Endpoint(); err != nil {
			return netip.AddrPort{}, udp.Config{}, err
		}
		scfg = t.SenderConfig()
	} else {
		if dest, err = udp.ParseDestination(d.to); err != nil {
			return netip.AddrPort{}, udp.Config{}, err
		}
	}

	if d.target == "" || changed("broadcast") {
		scfg.Broadcast = d.broadcast
	}
	if d.target == "" || changed("ttl") {
		scfg.TTL = d.ttl
	}
	if d.target == "" || changed("tos") {
		scfg.TOS = d.tos
	}

	return dest, scfg, scfg.Validate()
}
