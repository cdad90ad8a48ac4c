package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type saveOpts struct {
	*rootOpts
}

func newSave(parent *rootOpts) *saveOpts {
	return &saveOpts{rootOpts: parent}
}

func (opts *saveOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "save",
		Short:   "Write the edited image order of every row back to the loaded file.",
		Example: "  stripctl save",
		RunE:    opts.RunE,
	}
	return cmd
}

func (opts *saveOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	res, err := opts.API.Save(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d rows to %s\n", res.Rows, res.Path)
	return nil
}
