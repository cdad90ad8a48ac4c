package session

import (
	"errors"
	"fmt"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

var ErrNoTable = &striperr.Error{
	Type: striperr.Missing,
	Err:  errors.New("no table loaded"),
	Help: `No table is loaded

Either the file stripd was started with could not be read, or no file
was given. Load one with

    stripctl load <path>

and try again.
`,
}

func tableLoadError(path string, reason error) error {
	return &striperr.Error{
		Type: striperr.User,
		Err:  reason,
		Help: `Unable to load the table

stripd could not read

    ` + path + `

giving this error:

    ` + reason.Error() + `

Check that the file exists, that it uses ';' between fields, that its
first line is a header, and that every line has as many fields as the
header. If the file is not UTF-8, start stripd with --table-encoding.
`,
	}
}

func tableNotAllowedError(path string) error {
	return &striperr.Error{
		Type: striperr.User,
		Err:  fmt.Errorf("%s is not the configured table, nor inside the table directory", path),
		Help: `Unable to load the table

stripd only loads the file it was started with, or files inside the
directory given with --table-dir. It was asked to load

    ` + path + `

which is neither. The table already loaded, if any, is unchanged.
`,
	}
}

func tableSaveError(path string, reason error) error {
	return &striperr.Error{
		Type: striperr.Server,
		Err:  reason,
		Help: `Unable to save the table

stripd could not write

    ` + path + `

giving this error:

    ` + reason.Error() + `

Nothing has been lost: your changes are still held by stripd, and the
file on disk is as it was. Fix the problem (e.g., permissions, disk
space, or characters the file's encoding cannot represent) and save
again.
`,
	}
}

func unknownRowError(row, total int) error {
	return &striperr.Error{
		Type: striperr.Missing,
		Err:  fmt.Errorf("row %d not in table (%d rows)", row, total),
		Help: fmt.Sprintf(`Row not found

The table has %d rows, numbered from 0. Reload the page you are
looking at; the table may have been replaced since.
`, total),
	}
}

func unknownImageError(digest string, reason error) error {
	return &striperr.Error{
		Type: striperr.Missing,
		Err:  reason,
		Help: `Image not available

The image ` + digest + ` has not been resolved, or could not be
fetched. View the page it belongs to first; if it is shown as a bad
link, follow the link to see what its source returns.
`,
	}
}
