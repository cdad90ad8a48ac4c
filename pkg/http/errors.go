package http

import (
	"errors"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

func MakeAPINotFound(path string) *striperr.Error {
	return &striperr.Error{
		Type: striperr.Missing,
		Help: `The API endpoint requested is not supported by this server.

This indicates that your client (probably stripctl) is either out of
date, or faulty. Check that stripctl and stripd are the same version.

The path requested was:

    ` + path + `
`,
		Err: errors.New("API endpoint not found"),
	}
}

func MakeBadParameter(name, value string) *striperr.Error {
	return &striperr.Error{
		Type: striperr.User,
		Help: `The request had a parameter that could not be understood.

The parameter ` + name + ` should be a whole number, but was

    ` + value + `
`,
		Err: errors.New("bad value for parameter " + name + ": " + value),
	}
}
