package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type loadOpts struct {
	*rootOpts
}

func newLoad(parent *rootOpts) *loadOpts {
	return &loadOpts{rootOpts: parent}
}

func (opts *loadOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [path]",
		Short: "Load a catalog file, dropping any unsaved edits. With no path, reload the file stripd was started with.",
		Example: `  stripctl load /data/update_assortment.csv
  stripctl load`,
		RunE: opts.RunE,
	}
	return cmd
}

func (opts *loadOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return newUsageError("expected at most one path")
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cols, err := opts.API.Load(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s: %d rows, %d image columns, %d pages\n", cols.Path, cols.Rows, len(cols.ImageColumns), cols.Pages)
	return nil
}
