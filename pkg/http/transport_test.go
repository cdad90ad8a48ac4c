package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

func TestMakeURL(t *testing.T) {
	router := NewAPIRouter()

	u, err := MakeURL("http://localhost:3031/api", router, Delete, "row", "4", "image", "2")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3031/api/v1/rows/4/delete?image=2", u.String())

	u, err = MakeURL("http://localhost:3031", router, Page, "page", "3")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3031/v1/page?page=3", u.String())

	_, err = MakeURL("http://localhost:3031", router, "NoSuchRoute")
	assert.Error(t, err)

	// a path variable left out cannot be filled in
	_, err = MakeURL("http://localhost:3031", router, MoveToEnd, "position", "1")
	assert.Error(t, err)
}

func TestErrorResponseStatus(t *testing.T) {
	for _, c := range []struct {
		err  error
		code int
	}{
		{&striperr.Error{Type: striperr.Missing, Err: errors.New("no table")}, http.StatusNotFound},
		{&striperr.Error{Type: striperr.User, Err: errors.New("bad file")}, http.StatusUnprocessableEntity},
		{pkgerrors.Wrap(&striperr.Error{Type: striperr.User, Err: errors.New("bad file")}, "loading"), http.StatusUnprocessableEntity},
		{errors.New("anything else"), http.StatusInternalServerError},
	} {
		req := httptest.NewRequest("GET", "/v1/columns", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		ErrorResponse(rec, req, c.err)
		assert.Equal(t, c.code, rec.Code, c.err.Error())

		var got striperr.Error
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.Type)
	}
}

func TestWriteErrorPlainText(t *testing.T) {
	req := httptest.NewRequest("GET", "/v1/columns", nil)
	req.Header.Set("Accept", "text/plain")
	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusNotFound, &striperr.Error{Type: striperr.Missing, Help: "load a table first", Err: errors.New("no table")})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "load a table first", rec.Body.String())

	// no Accept header gets the error text
	req = httptest.NewRequest("GET", "/v1/columns", nil)
	rec = httptest.NewRecorder()
	WriteError(rec, req, http.StatusInternalServerError, errors.New("boom"))
	assert.Equal(t, "boom", rec.Body.String())
}
