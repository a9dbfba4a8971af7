// Command bgprouter runs one BGP-like route processor instance, peering
// with the neighbors given on the command line (spec.md §6). Argument
// parsing follows the ecosystem-idiomatic Cobra style (pack:
// aldrin-isaac-newtron, plexsphere-plexd) rather than davidcoles-cue's
// stdlib flag-based cmd/bgp.go.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvisonneau/bgprouter/bgp"
	"github.com/mvisonneau/bgprouter/log"
	"github.com/mvisonneau/bgprouter/transport"
)

const readyDelay = 100 * time.Millisecond

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	var status bool

	cmd := &cobra.Command{
		Use:           "bgprouter <asn> <conn> [<conn>...]",
		Short:         "Run a BGP-like inter-domain route processor",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, debug, status)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&status, "status", false, "print a router snapshot after the initial handshake round")

	return cmd
}

func run(args []string, debug, status bool) error {
	asn, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("malformed AS number %q: %w", args[0], err)
	}
	if asn < 0 || asn > 65535 {
		return fmt.Errorf("AS number %d out of range 0-65535", asn)
	}

	neighbors := bgp.NewNeighborTable()
	pool := transport.NewPool()

	for _, conn := range args[1:] {
		n, err := bgp.ParseConn(conn)
		if err != nil {
			return err
		}

		ep, err := transport.NewEndpoint(n.Addr, n.Port)
		if err != nil {
			return err
		}

		pool.Add(ep)
		neighbors.Add(n, ep)
	}
	defer pool.Close()

	logger := log.NewDefault(debug)
	router := bgp.NewRouter(asn, neighbors, logger)

	if err := router.SendHandshakes(); err != nil {
		return fmt.Errorf("sending initial handshakes: %w", err)
	}

	if status {
		b, err := json.MarshalIndent(router.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
	}

	stop := make(chan struct{})
	return pool.Run(readyDelay, router.HandleDatagram, stop)
}
