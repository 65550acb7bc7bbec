// Package main provides the boltline CLI entry point: a single Cypher
// statement in, styled records out.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts runOptions

	root := &cobra.Command{
		Use:   "boltline [statement]",
		Short: "boltline - run one Cypher statement over Bolt v1 and print the result",
		Long: `boltline is a minimal client for a Bolt v1 / PackStream graph database.

It dials a server, runs a single Cypher statement, prints each returned
record, and exits non-zero if the statement or the connection failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statement := "RETURN 1"
			if len(args) == 1 {
				statement = args[0]
			}
			return run(cmd, statement, opts)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("boltline v%s\n", version)
		},
	})

	root.Flags().StringVar(&opts.addr, "addr", "[::1]:7687", "server address (host:port)")
	root.Flags().StringVar(&opts.user, "user", "neo4j", "username for basic auth")
	root.Flags().StringVar(&opts.password, "password", "", "password for basic auth")
	root.Flags().StringVar(&opts.configPath, "config", "", "optional YAML config file (pkg/config)")
	return root
}

type runOptions struct {
	addr       string
	user       string
	password   string
	configPath string
}
