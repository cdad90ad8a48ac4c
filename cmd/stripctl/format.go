package main

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
)

const (
	outputFormatJson = "json"
	outputFormatTab  = "tab"
)

var validOutputFormats = []string{outputFormatJson, outputFormatTab}

func newTabwriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
}

func outputFormatIsValid(format string) bool {
	for _, f := range validOutputFormats {
		if f == format {
			return true
		}
	}
	return false
}

func outputJson(v interface{}, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cause(err error) error {
	return errors.Cause(err)
}
