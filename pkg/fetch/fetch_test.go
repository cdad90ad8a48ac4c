package fetch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetch(t *testing.T) {
	body := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	})
	mux.HandleFunc("/chunked.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(body[:10])
		w.(http.Flusher).Flush()
		w.Write(body[10:])
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()

	img, size, err := Fetch(ctx, srv.Client(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 3), img.Bounds())
	assert.Equal(t, int64(len(body)), size)

	img, size, err = Fetch(ctx, srv.Client(), srv.URL+"/chunked.png")
	require.NoError(t, err)
	assert.NotNil(t, img)
	assert.Equal(t, UnknownSize, size)

	_, _, err = Fetch(ctx, srv.Client(), srv.URL+"/missing.png")
	require.Error(t, err)
	statusErr, ok := err.(*StatusError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, _, err = Fetch(ctx, srv.Client(), srv.URL+"/garbage")
	assert.Error(t, err)

	_, _, err = Fetch(ctx, srv.Client(), "::not a url")
	assert.Error(t, err)
}
