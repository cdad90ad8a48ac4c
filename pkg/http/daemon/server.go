package daemon

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/weaveworks/common/middleware"

	"github.com/catalogtools/stripd/pkg/api"
	transport "github.com/catalogtools/stripd/pkg/http"
	stripmetrics "github.com/catalogtools/stripd/pkg/metrics"
)

var (
	requestDuration = stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "stripd",
		Name:      "request_duration_seconds",
		Help:      "Time (in seconds) spent serving HTTP requests.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{stripmetrics.LabelMethod, stripmetrics.LabelRoute, "status_code", "ws"})
)

func init() {
	stdprometheus.MustRegister(requestDuration)
}

// An API server for the daemon
func NewRouter() *mux.Router {
	r := transport.NewAPIRouter()

	// We assume every request that doesn't match a route is a client
	// calling an unsupported API.
	r.NewRoute().Name("NotFound").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteError(w, r, http.StatusNotFound, transport.MakeAPINotFound(r.URL.Path))
	})

	return r
}

func NewHandler(s api.Server, r *mux.Router) http.Handler {
	handle := HTTPServer{s}

	r.Get(transport.Ping).HandlerFunc(handle.Ping)
	r.Get(transport.Version).HandlerFunc(handle.Version)

	r.Get(transport.Load).HandlerFunc(handle.Load)
	r.Get(transport.Columns).HandlerFunc(handle.Columns)
	r.Get(transport.Page).HandlerFunc(handle.Page)

	r.Get(transport.Delete).HandlerFunc(handle.Delete)
	r.Get(transport.MoveToStart).HandlerFunc(handle.MoveToStart)
	r.Get(transport.MoveToEnd).HandlerFunc(handle.MoveToEnd)

	r.Get(transport.Save).HandlerFunc(handle.Save)
	r.Get(transport.Export).HandlerFunc(handle.Export)
	r.Get(transport.Image).HandlerFunc(handle.Image)

	return middleware.Instrument{
		RouteMatcher: r,
		Duration:     requestDuration,
	}.Wrap(r)
}

type HTTPServer struct {
	server api.Server
}

// LoadRequest is the body of a load request.
type LoadRequest struct {
	Path string `json:"path"`
}

func (s HTTPServer) Ping(w http.ResponseWriter, r *http.Request) {
	if err := s.server.Ping(r.Context()); err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s HTTPServer) Version(w http.ResponseWriter, r *http.Request) {
	version, err := s.server.Version(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, version)
}

func (s HTTPServer) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	defer r.Body.Close()

	// An empty body reloads the configured file
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		transport.WriteError(w, r, http.StatusBadRequest, errors.Wrap(err, "decoding load request"))
		return
	}
	cols, err := s.server.Load(r.Context(), req.Path)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, cols)
}

func (s HTTPServer) Columns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.server.Columns(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, cols)
}

func (s HTTPServer) Page(w http.ResponseWriter, r *http.Request) {
	number := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			transport.ErrorResponse(w, r, transport.MakeBadParameter("page", p))
			return
		}
		number = n
	}
	page, err := s.server.Page(r.Context(), number)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, page)
}

// mutateRow parses the row from the path and the named integer
// argument from the query, then applies the mutation.
func (s HTTPServer) mutateRow(w http.ResponseWriter, r *http.Request, argName string, mutate func(*http.Request, int, int) (api.Row, error)) {
	vars := mux.Vars(r)
	row, err := strconv.Atoi(vars["row"])
	if err != nil {
		transport.ErrorResponse(w, r, transport.MakeBadParameter("row", vars["row"]))
		return
	}
	value := r.URL.Query().Get(argName)
	arg, err := strconv.Atoi(value)
	if err != nil {
		transport.ErrorResponse(w, r, transport.MakeBadParameter(argName, value))
		return
	}
	result, err := mutate(r, row, arg)
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, result)
}

func (s HTTPServer) Delete(w http.ResponseWriter, r *http.Request) {
	s.mutateRow(w, r, "image", func(r *http.Request, row, image int) (api.Row, error) {
		return s.server.Delete(r.Context(), row, image)
	})
}

func (s HTTPServer) MoveToStart(w http.ResponseWriter, r *http.Request) {
	s.mutateRow(w, r, "position", func(r *http.Request, row, position int) (api.Row, error) {
		return s.server.MoveToStart(r.Context(), row, position)
	})
}

func (s HTTPServer) MoveToEnd(w http.ResponseWriter, r *http.Request) {
	s.mutateRow(w, r, "position", func(r *http.Request, row, position int) (api.Row, error) {
		return s.server.MoveToEnd(r.Context(), row, position)
	})
}

func (s HTTPServer) Save(w http.ResponseWriter, r *http.Request) {
	result, err := s.server.Save(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.JSONResponse(w, r, result)
}

func (s HTTPServer) Export(w http.ResponseWriter, r *http.Request) {
	body, err := s.server.Export(r.Context())
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="export.csv"`)
	transport.BytesResponse(w, r, "text/csv", body)
}

func (s HTTPServer) Image(w http.ResponseWriter, r *http.Request) {
	body, err := s.server.Image(r.Context(), mux.Vars(r)["digest"])
	if err != nil {
		transport.ErrorResponse(w, r, err)
		return
	}
	transport.BytesResponse(w, r, "image/png", body)
}
