package main

import (
	"errors"
	"fmt"
	"strings"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

type usageError struct {
	error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

var errorWantedNoArgs = newUsageError("expected no (non-flag) arguments")
var errorInvalidOutputFormat = newUsageError("invalid output format specified")

// helpful turns an API error into one that says what to do about it.
func helpful(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := cause(err).(*striperr.Error); ok && apiErr.Help != "" {
		return fmt.Errorf("%s", strings.TrimSpace(apiErr.Help))
	}
	return err
}
