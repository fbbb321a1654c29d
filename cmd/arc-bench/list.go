package main

import (
	"context"
	"os"
	"strconv"

	"github.com/gezibash/arc-bench/internal/bench/suite"
	blobphysical "github.com/gezibash/arc-bench/internal/blobstore/physical"
	"github.com/gezibash/arc-bench/internal/cli"
	kvphysical "github.com/gezibash/arc-bench/internal/kvstore/physical"
	"github.com/gezibash/arc-bench/pkg/store"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var format, where string
	cmd := &cobra.Command{
		Use:   "list [prefix]",
		Short: "List benchmarks without running them",
		Long: `List the benchmarks a run would execute, in order.

Examples:
  arc-bench list
  arc-bench list /db/
  arc-bench list --where 'group == "object" && !batch' -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prefix string
			if len(args) == 1 {
				prefix = args[0]
			}

			// The catalog only needs a client to bind to; nothing runs.
			client, err := store.Open(context.Background(), store.DefaultConfig())
			if err != nil {
				return err
			}
			defer client.Close()
			s, err := suite.New(client)
			if err != nil {
				return err
			}
			entries, err := selectEntries(s.Catalog(), prefix, where)
			if err != nil {
				return err
			}

			tbl := cli.NewOutput(cli.ParseFormat(format), os.Stdout).
				Table("bench-list", "Name", "Surface", "Batch")
			for _, e := range entries {
				tbl.AddRow(e.Name, e.Surface, strconv.FormatBool(e.Batch))
			}
			return tbl.Render()
		},
	}
	cmd.Flags().StringVar(&where, "where", "", "CEL expression selecting benchmarks")
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text, json, markdown)")
	return cmd
}

func newBackendsCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List the registered storage backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kv := cli.NewOutput(cli.ParseFormat(format), os.Stdout).KV("bench-backends")
			kv.Set("KV", kvphysical.Registry.List())
			kv.Set("Object", blobphysical.Registry.List())
			kv.Set("DB", "sqlite")
			return kv.Render()
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text, json, markdown)")
	return cmd
}
