package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

func NewAPIRouter() *mux.Router {
	r := mux.NewRouter()

	r.NewRoute().Name(Ping).Methods("GET").Path("/v1/ping")
	r.NewRoute().Name(Version).Methods("GET").Path("/v1/version")

	r.NewRoute().Name(Load).Methods("POST").Path("/v1/load")
	r.NewRoute().Name(Columns).Methods("GET").Path("/v1/columns")
	r.NewRoute().Name(Page).Methods("GET").Path("/v1/page")

	r.NewRoute().Name(Delete).Methods("POST").Path("/v1/rows/{row}/delete").Queries("image", "{image}")
	r.NewRoute().Name(MoveToStart).Methods("POST").Path("/v1/rows/{row}/move-start").Queries("position", "{position}")
	r.NewRoute().Name(MoveToEnd).Methods("POST").Path("/v1/rows/{row}/move-end").Queries("position", "{position}")

	r.NewRoute().Name(Save).Methods("POST").Path("/v1/save")
	r.NewRoute().Name(Export).Methods("HEAD", "GET").Path("/v1/export")
	r.NewRoute().Name(Image).Methods("GET").Path("/v1/images/{digest}")

	return r
}

// MakeURL builds the URL for a named route. urlParams are name, value
// pairs; those named in the route's path fill in the path, the rest
// become query parameters.
func MakeURL(endpoint string, router *mux.Router, routeName string, urlParams ...string) (*url.URL, error) {
	if len(urlParams)%2 != 0 {
		panic("urlParams must be even!")
	}

	endpointURL, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing endpoint %s", endpoint)
	}
	route := router.Get(routeName)
	if route == nil {
		return nil, errors.New("no route with name " + routeName)
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving route path %s", routeName)
	}

	var pathVars []string
	v := url.Values{}
	for i := 0; i < len(urlParams); i += 2 {
		if strings.Contains(tmpl, "{"+urlParams[i]+"}") {
			pathVars = append(pathVars, urlParams[i], urlParams[i+1])
			continue
		}
		v.Add(urlParams[i], urlParams[i+1])
	}

	routeURL, err := route.URLPath(pathVars...)
	if err != nil {
		return nil, errors.Wrapf(err, "retrieving route path %s", routeName)
	}

	endpointURL.Path = path.Join(endpointURL.Path, routeURL.Path)
	endpointURL.RawQuery = v.Encode()
	return endpointURL, nil
}

func WriteError(w http.ResponseWriter, r *http.Request, code int, err error) {
	// An Accept header with "application/json" is sent by clients
	// understanding how to decode JSON errors. Anything else gets
	// the help text, or failing that the error text.
	if len(r.Header.Get("Accept")) > 0 {
		switch negotiateContentType(r, []string{"application/json", "text/plain"}) {
		case "application/json":
			body, encodeErr := json.Marshal(err)
			if encodeErr != nil {
				w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, "Error encoding error response: %s\n\nOriginal error: %s", encodeErr.Error(), err.Error())
				return
			}
			w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "application/json; charset=utf-8")
			w.WriteHeader(code)
			w.Write(body)
			return
		case "text/plain":
			w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
			w.WriteHeader(code)
			switch err := err.(type) {
			case *striperr.Error:
				fmt.Fprint(w, err.Help)
			default:
				fmt.Fprint(w, err.Error())
			}
			return
		}
	}
	w.Header().Set(http.CanonicalHeaderKey("Content-Type"), "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, err.Error())
}

func JSONResponse(w http.ResponseWriter, r *http.Request, result interface{}) {
	body, err := json.Marshal(result)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// BytesResponse sends a body as-is, e.g., an image or a file download.
func BytesResponse(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != "HEAD" {
		w.Write(body)
	}
}

func ErrorResponse(w http.ResponseWriter, r *http.Request, apiError error) {
	var outErr *striperr.Error
	var code int
	var ok bool

	err := errors.Cause(apiError)
	if outErr, ok = err.(*striperr.Error); !ok {
		outErr = striperr.CoverAllError(apiError)
	}
	switch outErr.Type {
	case striperr.Missing:
		code = http.StatusNotFound
	case striperr.User:
		code = http.StatusUnprocessableEntity
	case striperr.Server:
		code = http.StatusInternalServerError
	default:
		code = http.StatusInternalServerError
	}
	WriteError(w, r, code, outErr)
}
