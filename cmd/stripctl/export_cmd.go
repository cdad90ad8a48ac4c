package main

import (
	"context"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type exportOpts struct {
	*rootOpts
	output string
}

func newExport(parent *rootOpts) *exportOpts {
	return &exportOpts{rootOpts: parent}
}

func (opts *exportOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the edited table without saving it.",
		Example: `  stripctl export > edited.csv
  stripctl export -f edited.csv`,
		RunE: opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.output, "file", "f", "", "write to this file rather than stdout")
	return cmd
}

func (opts *exportOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	body, err := opts.API.Export(ctx)
	if err != nil {
		return err
	}
	if opts.output != "" {
		return errors.Wrapf(ioutil.WriteFile(opts.output, body, 0644), "writing %s", opts.output)
	}
	_, err = cmd.OutOrStdout().Write(body)
	return err
}
