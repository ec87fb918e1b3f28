package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/postalsys/udpfaf/internal/sysinfo"
)

func interfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interfaces",
		Short: "List local IPv4 addresses and broadcast addresses",
		Long: `List the IPv4 addresses of local interfaces together with their
directed broadcast address, for choosing a --broadcast destination.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ifaces, err := sysinfo.Interfaces()
			if err != nil {
				return fmt.Errorf("failed to list interfaces: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "INTERFACE\tADDRESS\tBROADCAST\tSTATE")
			for _, iface := range ifaces {
				bcast := "-"
				if iface.Broadcast.IsValid() {
					bcast = iface.Broadcast.String()
				}
				state := "down"
				if iface.Up {
					state = "up"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", iface.Name, iface.Prefix, bcast, state)
			}
			return w.Flush()
		},
	}
}
