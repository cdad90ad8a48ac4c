package client

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	striperr "github.com/catalogtools/stripd/pkg/errors"
	"github.com/catalogtools/stripd/pkg/fetch"
	transport "github.com/catalogtools/stripd/pkg/http"
	"github.com/catalogtools/stripd/pkg/http/daemon"
	"github.com/catalogtools/stripd/pkg/imagecache"
	"github.com/catalogtools/stripd/pkg/session"
)

// imageServer serves a small PNG on /ok and 404 on anything else.
func imageServer(t *testing.T) *httptest.Server {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(buf.Bytes())
	}))
}

func TestClientAgainstDaemon(t *testing.T) {
	images := imageServer(t)
	defer images.Close()

	dir, err := ioutil.TempDir("", "client-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "products.csv")
	csv := "Код артикула;Изображения товаров;Изображения товаров 2\n" +
		"A-1;" + images.URL + "/missing;" + images.URL + "/ok\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(csv), 0644))

	resolver := imagecache.NewResolver(imagecache.ResolverConfig{
		Cache:  imagecache.NewDiskClient(filepath.Join(dir, "image_cache"), log.NewNopLogger()),
		HTTP:   images.Client(),
		Fetch:  fetch.Fetch,
		Logger: log.NewNopLogger(),
	})
	s := session.New(session.Config{Path: path, Version: "test"}, resolver, log.NewNopLogger())

	srv := httptest.NewServer(daemon.NewHandler(s, daemon.NewRouter()))
	defer srv.Close()
	c := New(http.DefaultClient, transport.NewAPIRouter(), srv.URL)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test", v)

	// nothing loaded yet
	_, err = c.Columns(ctx)
	require.Error(t, err)
	assert.True(t, striperr.IsMissing(errors.Cause(err)))

	cols, err := c.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cols.Rows)
	assert.Len(t, cols.ImageColumns, 2)

	page, err := c.Page(ctx, 1)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	strip := page.Rows[0].Images
	require.Len(t, strip, 2)
	assert.False(t, strip[0].Available)
	assert.True(t, strip[1].Available)

	body, err := c.Image(ctx, strip[1].Digest)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(body))
	assert.NoError(t, err)

	row, err := c.Delete(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, row.Images, 1)
	assert.Equal(t, images.URL+"/ok", row.Images[0].Reference)

	_, err = c.MoveToEnd(ctx, 5, 0)
	assert.True(t, striperr.IsMissing(errors.Cause(err)))

	exported, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(exported), "A-1;"+images.URL+"/ok;\n")

	res, err := c.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	saved, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, exported, saved)
}
