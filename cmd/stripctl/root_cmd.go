package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/catalogtools/stripd/pkg/api"
	transport "github.com/catalogtools/stripd/pkg/http"
	"github.com/catalogtools/stripd/pkg/http/client"
)

const (
	EnvVariableURL = "STRIPD_URL"
)

type rootOpts struct {
	URL     string
	Timeout time.Duration
	API     api.Server
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
stripctl edits the image strips of a catalog file served by stripd.

Workflow:
  stripctl columns                              # What is loaded, and which columns hold images?
  stripctl page -p 3                            # Show rows on page 3 with their images
  stripctl delete --row 21 --image 1            # Drop a bad image from row 21
  stripctl move-start --row 21 --position 2     # Make the third image the first
  stripctl save                                 # Write every row back to the file
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "stripctl",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.URL, "url", "u", "http://localhost:3031",
		fmt.Sprintf("base URL of the stripd API server; you can also set the environment variable %s", EnvVariableURL))
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "global command timeout")

	cmd.AddCommand(
		newVersionCommand(),
		newLoad(opts).Command(),
		newColumns(opts).Command(),
		newPage(opts).Command(),
		newRowEdit(opts, deleteImage).Command(),
		newRowEdit(opts, moveToStart).Command(),
		newRowEdit(opts, moveToEnd).Command(),
		newSave(opts).Command(),
		newExport(opts).Command(),
	)

	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	// the API may already be set, e.g., in tests
	if opts.API != nil {
		return nil
	}
	url := os.Getenv(EnvVariableURL)
	if cmd.Flags().Changed("url") || url == "" {
		url = opts.URL
	}
	if url == "" {
		return newUsageError("no URL given for stripd; use --url or set " + EnvVariableURL)
	}
	opts.API = client.New(&http.Client{Timeout: opts.Timeout}, transport.NewAPIRouter(), url)
	return nil
}
