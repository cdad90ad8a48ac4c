package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/catalogtools/stripd/pkg/api"
)

type rowEdit struct {
	use     string
	short   string
	example string
	argName string
	argHelp string
	apply   func(ctx context.Context, s api.Server, row, arg int) (api.Row, error)
}

var (
	deleteImage = rowEdit{
		use:     "delete",
		short:   "Delete an image from a row's strip. The image is identified by its index in the row, as shown by `stripctl page`.",
		example: "  stripctl delete --row 21 --image 1",
		argName: "image",
		argHelp: "index of the image in the row",
		apply: func(ctx context.Context, s api.Server, row, image int) (api.Row, error) {
			return s.Delete(ctx, row, image)
		},
	}
	moveToStart = rowEdit{
		use:     "move-start",
		short:   "Move the image at a strip position to the front.",
		example: "  stripctl move-start --row 21 --position 2",
		argName: "position",
		argHelp: "position in the strip, from 0",
		apply: func(ctx context.Context, s api.Server, row, position int) (api.Row, error) {
			return s.MoveToStart(ctx, row, position)
		},
	}
	moveToEnd = rowEdit{
		use:     "move-end",
		short:   "Move the image at a strip position to the back.",
		example: "  stripctl move-end --row 21 --position 0",
		argName: "position",
		argHelp: "position in the strip, from 0",
		apply: func(ctx context.Context, s api.Server, row, position int) (api.Row, error) {
			return s.MoveToEnd(ctx, row, position)
		},
	}
)

type rowEditOpts struct {
	*rootOpts
	edit rowEdit
	row  int
	arg  int
}

func newRowEdit(parent *rootOpts, edit rowEdit) *rowEditOpts {
	return &rowEditOpts{rootOpts: parent, edit: edit}
}

func (opts *rowEditOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:     opts.edit.use,
		Short:   opts.edit.short,
		Example: opts.edit.example,
		RunE:    opts.RunE,
	}
	cmd.Flags().IntVarP(&opts.row, "row", "r", -1, "row index, as shown by `stripctl page`")
	cmd.Flags().IntVar(&opts.arg, opts.edit.argName, -1, opts.edit.argHelp)
	return cmd
}

func (opts *rowEditOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if !cmd.Flags().Changed("row") {
		return newUsageError("--row is required")
	}
	if !cmd.Flags().Changed(opts.edit.argName) {
		return newUsageError("--" + opts.edit.argName + " is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	row, err := opts.edit.apply(ctx, opts.API, opts.row, opts.arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Edited row %d; not saved until `stripctl save`.\n\n", row.Index)
	return outputRows([]api.Row{row}, cmd.OutOrStdout())
}
