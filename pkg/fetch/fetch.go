// Package fetch retrieves images named by a reference (an http or
// https URL) and decodes them.
package fetch

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// UnknownSize is the size reported when the response says nothing
// about how big the image is.
const UnknownSize int64 = -1

// StatusError is returned when the remote answers with anything other
// than a 2xx status.
type StatusError struct {
	Reference  string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d %s", e.Reference, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetch does a GET of reference and decodes the body as an image. The
// size comes from the Content-Length header, if there is one.
func Fetch(ctx context.Context, client *http.Client, reference string) (image.Image, int64, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequest("GET", reference, nil)
	if err != nil {
		return nil, UnknownSize, errors.Wrapf(err, "constructing request for %s", reference)
	}
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return nil, UnknownSize, err
	}
	defer func() {
		io.Copy(ioutil.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, UnknownSize, &StatusError{Reference: reference, StatusCode: resp.StatusCode}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, UnknownSize, errors.Wrapf(err, "decoding image from %s", reference)
	}
	return img, contentLength(resp), nil
}

func contentLength(resp *http.Response) int64 {
	v := resp.Header.Get("Content-Length")
	if v == "" {
		return UnknownSize
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return UnknownSize
	}
	return n
}
