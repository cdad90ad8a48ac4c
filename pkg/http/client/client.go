package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/catalogtools/stripd/pkg/api"
	striperr "github.com/catalogtools/stripd/pkg/errors"
	transport "github.com/catalogtools/stripd/pkg/http"
)

type Client struct {
	client   *http.Client
	router   *mux.Router
	endpoint string
}

var _ api.Server = &Client{}

func New(c *http.Client, router *mux.Router, endpoint string) *Client {
	return &Client{
		client:   c,
		router:   router,
		endpoint: endpoint,
	}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Get(ctx, nil, transport.Ping)
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	err := c.Get(ctx, &v, transport.Version)
	return v, err
}

func (c *Client) Load(ctx context.Context, path string) (api.Columns, error) {
	var res api.Columns
	err := c.methodWithResp(ctx, "POST", &res, transport.Load, struct {
		Path string `json:"path"`
	}{path})
	return res, err
}

func (c *Client) Columns(ctx context.Context) (api.Columns, error) {
	var res api.Columns
	err := c.Get(ctx, &res, transport.Columns)
	return res, err
}

func (c *Client) Page(ctx context.Context, page int) (api.Page, error) {
	var res api.Page
	err := c.Get(ctx, &res, transport.Page, "page", strconv.Itoa(page))
	return res, err
}

func (c *Client) Delete(ctx context.Context, row, imageIndex int) (api.Row, error) {
	var res api.Row
	err := c.methodWithResp(ctx, "POST", &res, transport.Delete, nil, "row", strconv.Itoa(row), "image", strconv.Itoa(imageIndex))
	return res, err
}

func (c *Client) MoveToStart(ctx context.Context, row, position int) (api.Row, error) {
	var res api.Row
	err := c.methodWithResp(ctx, "POST", &res, transport.MoveToStart, nil, "row", strconv.Itoa(row), "position", strconv.Itoa(position))
	return res, err
}

func (c *Client) MoveToEnd(ctx context.Context, row, position int) (api.Row, error) {
	var res api.Row
	err := c.methodWithResp(ctx, "POST", &res, transport.MoveToEnd, nil, "row", strconv.Itoa(row), "position", strconv.Itoa(position))
	return res, err
}

func (c *Client) Save(ctx context.Context) (api.SaveResult, error) {
	var res api.SaveResult
	err := c.methodWithResp(ctx, "POST", &res, transport.Save, nil)
	return res, err
}

func (c *Client) Export(ctx context.Context) ([]byte, error) {
	return c.GetBytes(ctx, transport.Export)
}

func (c *Client) Image(ctx context.Context, digest string) ([]byte, error) {
	return c.GetBytes(ctx, transport.Image, "digest", digest)
}

// --- Request helpers

// methodWithResp is the full enchilada, it handles body and query-param
// encoding, as well as decoding the response into the provided destination.
// Note, the response will only be decoded into the dest if the len is > 0.
func (c *Client) methodWithResp(ctx context.Context, method string, dest interface{}, route string, body interface{}, urlParams ...string) error {
	u, err := transport.MakeURL(c.endpoint, c.router, route, urlParams...)
	if err != nil {
		return errors.Wrap(err, "constructing URL")
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	req, err := http.NewRequest(method, u.String(), bytes.NewReader(bodyBytes))
	if err != nil {
		return errors.Wrapf(err, "constructing request %s", u)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.executeRequest(req)
	if err != nil {
		return errors.Wrap(err, "executing HTTP request")
	}
	defer resp.Body.Close()

	respBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "decoding response from server")
	}
	if len(respBytes) <= 0 || dest == nil {
		return nil
	}
	if err := json.Unmarshal(respBytes, dest); err != nil {
		return errors.Wrap(err, "decoding response from server")
	}
	return nil
}

// Get executes a get request against the stripd server. it unmarshals the response into dest, if not nil.
func (c *Client) Get(ctx context.Context, dest interface{}, route string, urlParams ...string) error {
	resp, err := c.get(ctx, route, urlParams...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return errors.Wrap(err, "decoding response from server")
		}
	}
	return nil
}

// GetBytes executes a get request and returns the body undecoded.
func (c *Client) GetBytes(ctx context.Context, route string, urlParams ...string) ([]byte, error) {
	resp, err := c.get(ctx, route, urlParams...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response from server")
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, route string, urlParams ...string) (*http.Response, error) {
	u, err := transport.MakeURL(c.endpoint, c.router, route, urlParams...)
	if err != nil {
		return nil, errors.Wrap(err, "constructing URL")
	}

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "constructing request %s", u)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.executeRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "executing HTTP request")
	}
	return resp, nil
}

func (c *Client) executeRequest(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "executing HTTP request")
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusAccepted:
		return resp, nil
	default:
		defer resp.Body.Close()
		body, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "reading response body of error")
		}
		// Use the content type to discriminate between `striperr.Error`,
		// and any old error
		if strings.HasPrefix(resp.Header.Get(http.CanonicalHeaderKey("Content-Type")), "application/json") {
			var niceError striperr.Error
			if err := json.Unmarshal(body, &niceError); err != nil {
				return nil, errors.Wrap(err, "decoding response body of error")
			}
			// just in case it's JSON but not one of our own errors
			if niceError.Err != nil {
				return nil, &niceError
			}
			// fallthrough
		}
		return nil, errors.New(resp.Status + " " + string(body))
	}
}
