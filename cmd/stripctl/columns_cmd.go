package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type columnsOpts struct {
	*rootOpts
	outputFormat string
}

func newColumns(parent *rootOpts) *columnsOpts {
	return &columnsOpts{rootOpts: parent}
}

func (opts *columnsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "columns",
		Short:   "Show the loaded file's header and which columns hold images.",
		Example: "  stripctl columns",
		RunE:    opts.RunE,
	}
	cmd.Flags().StringVarP(&opts.outputFormat, "output-format", "o", outputFormatTab, "output format (one of json, tab)")
	return cmd
}

func (opts *columnsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if !outputFormatIsValid(opts.outputFormat) {
		return errorInvalidOutputFormat
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	cols, err := opts.API.Columns(ctx)
	if err != nil {
		return err
	}
	if opts.outputFormat == outputFormatJson {
		return outputJson(cols, cmd.OutOrStdout())
	}

	images := map[string]bool{}
	for _, c := range cols.ImageColumns {
		images[c] = true
	}
	article := cols.DisplayColumn
	if !cols.DisplayColumnFound {
		article += " (not present)"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:     %s\n", cols.Path)
	fmt.Fprintf(out, "Rows:     %d (%d pages)\n", cols.Rows, cols.Pages)
	fmt.Fprintf(out, "Article:  %s\n", article)
	fmt.Fprintf(out, "Images:   %s\n\n", strings.Join(cols.ImageColumns, ", "))

	w := newTabwriter(out)
	fmt.Fprintf(w, "COLUMN\tNAME\tIMAGES\n")
	for i, name := range cols.Header {
		var mark string
		if images[name] {
			mark = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, name, mark)
	}
	return w.Flush()
}
