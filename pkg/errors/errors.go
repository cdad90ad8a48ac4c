package errors

import (
	"encoding/json"
	"errors"
)

// Error is how failures are represented in the API. They fall into a
// small number of categories, distinguished by who has to act:
//  - something went wrong in the daemon (e.g., the file could not be
//    written), so it may be worth trying again;
//  - the thing asked for does not exist (e.g., no table is loaded);
//  - the request cannot work until the operator does something else
//    (e.g., fixes the file they asked to load).
type Error struct {
	Type Type
	// a message that can be shown to the operator
	Help string `json:"help"`
	// the underlying error, e.g., for the log
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

type Type string

const (
	// The operation looked fine, but something went wrong doing it
	Server Type = "server"
	// The row, image or table mentioned does not exist
	Missing Type = "missing"
	// The request was well-formed, but can't be honoured with the
	// input given
	User Type = "user"
)

func IsMissing(err error) bool {
	if err, ok := err.(*Error); ok && err.Type == Missing {
		return true
	}
	return false
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var errMsg string
	if e.Err != nil {
		errMsg = e.Err.Error()
	}
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{
		Type: string(e.Type),
		Help: e.Help,
		Err:  errMsg,
	}
	return json.Marshal(jsonable)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	jsonable := &struct {
		Type string `json:"type"`
		Help string `json:"help"`
		Err  string `json:"error,omitempty"`
	}{}
	if err := json.Unmarshal(data, &jsonable); err != nil {
		return err
	}
	e.Type = Type(jsonable.Type)
	e.Help = jsonable.Help
	if jsonable.Err != "" {
		e.Err = errors.New(jsonable.Err)
	}
	return nil
}

// CoverAllError wraps an error that has no specific help text.
func CoverAllError(err error) *Error {
	return &Error{
		Type: Server,
		Err:  err,
		Help: `Error: ` + err.Error() + `

There is no specific help for the error above. Check the stripd logs
for more detail, and try the operation again.
`,
	}
}
