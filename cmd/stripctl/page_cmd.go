package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/catalogtools/stripd/pkg/api"
)

type pageOpts struct {
	*rootOpts
	page         int
	outputFormat string
}

func newPage(parent *rootOpts) *pageOpts {
	return &pageOpts{rootOpts: parent}
}

func (opts *pageOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Show a page of rows with their images in strip order.",
		Example: `  stripctl page
  stripctl page -p 4 -o json`,
		RunE: opts.RunE,
	}
	cmd.Flags().IntVarP(&opts.page, "page", "p", 1, "page number, starting at 1; out of range pages are clamped")
	cmd.Flags().StringVarP(&opts.outputFormat, "output-format", "o", outputFormatTab, "output format (one of json, tab)")
	return cmd
}

func (opts *pageOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if !outputFormatIsValid(opts.outputFormat) {
		return errorInvalidOutputFormat
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	page, err := opts.API.Page(ctx, opts.page)
	if err != nil {
		return err
	}
	if opts.outputFormat == outputFormatJson {
		return outputJson(page, cmd.OutOrStdout())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Page %d of %d (rows %d-%d of %d)\n\n", page.Page, page.Pages, page.Start, page.End, page.TotalRows)
	return outputRows(page.Rows, out)
}

func outputRows(rows []api.Row, out io.Writer) error {
	w := newTabwriter(out)
	fmt.Fprintf(w, "ROW\tARTICLE\tPOSITION\tIMAGE\tSIZE\tSTATUS\tREFERENCE\n")
	for _, row := range rows {
		if len(row.Images) == 0 {
			fmt.Fprintf(w, "%d\t%s\t\t\t\t(no images)\t\n", row.Index, row.Article)
			continue
		}
		for i, img := range row.Images {
			index, article := "", ""
			if i == 0 {
				index, article = strconv.Itoa(row.Index), row.Article
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n", index, article, img.Position, img.ImageIndex, formatSize(img.Size), status(img), img.Reference)
		}
	}
	return w.Flush()
}

func formatSize(size *int64) string {
	if size == nil {
		return "?"
	}
	const kb = 1024
	if *size < kb {
		return fmt.Sprintf("%d B", *size)
	}
	return fmt.Sprintf("%.1f KB", float64(*size)/kb)
}

func status(img api.Image) string {
	if img.Available {
		return "ok"
	}
	if img.Error != "" {
		return "unavailable: " + img.Error
	}
	return "unavailable"
}
