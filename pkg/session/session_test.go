package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	striperr "github.com/catalogtools/stripd/pkg/errors"
	"github.com/catalogtools/stripd/pkg/imagecache"
	"github.com/catalogtools/stripd/pkg/table"
)

const header = "Код артикула;Изображения товаров;Изображения товаров 2;Изображения товаров 3"

type fetcher struct {
	mu    sync.Mutex
	bad   map[string]bool
	calls int
}

func (f *fetcher) Fetch(ctx context.Context, _ *http.Client, ref string) (image.Image, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.bad[ref] {
		return nil, imagecache.UnknownSize, errors.New("unexpected status 404")
	}
	return image.NewGray(image.Rect(0, 0, 3, 3)), 42, nil
}

func setup(t *testing.T, csv string, bad ...string) (*Session, *fetcher, string, func()) {
	dir, err := ioutil.TempDir("", "session-test")
	require.NoError(t, err)
	path := filepath.Join(dir, "update_assortment.csv")
	require.NoError(t, ioutil.WriteFile(path, []byte(csv), 0644))

	f := &fetcher{bad: map[string]bool{}}
	for _, b := range bad {
		f.bad[b] = true
	}
	resolver := imagecache.NewResolver(imagecache.ResolverConfig{
		Cache:  imagecache.NewDiskClient(filepath.Join(dir, "image_cache"), log.NewNopLogger()),
		Fetch:  f.Fetch,
		Logger: log.NewNopLogger(),
	})
	s := New(Config{Path: path, TableDir: dir, PageSize: 2}, resolver, log.NewNopLogger())
	return s, f, path, func() { os.RemoveAll(dir) }
}

func readRows(t *testing.T, path string) [][]string {
	tab, err := table.LoadFile(path, table.Options{})
	require.NoError(t, err)
	return tab.Rows
}

func refs(row []string) []string {
	return row[1:]
}

func TestDeleteThenSave(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;http://x/0;http://x/1;http://x/2\n", "http://x/1")
	defer cleanup()
	ctx := context.Background()

	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	p, err := s.Page(ctx, 1)
	require.NoError(t, err)
	require.Len(t, p.Rows, 1)
	row := p.Rows[0]
	assert.Equal(t, "A-1", row.Article)
	require.Len(t, row.Images, 3)
	assert.True(t, row.Images[0].Available)
	assert.False(t, row.Images[1].Available)
	assert.NotEmpty(t, row.Images[1].Error)
	assert.Equal(t, "http://x/1", row.Images[1].Reference)
	assert.True(t, row.Images[2].Available)
	require.NotNil(t, row.Images[0].Size)
	assert.Equal(t, int64(42), *row.Images[0].Size)

	row, err = s.Delete(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, row.Images, 2)
	assert.Equal(t, "http://x/0", row.Images[0].Reference)
	assert.Equal(t, "http://x/2", row.Images[1].Reference)

	// viewing the page again does not lose the surviving images
	p, err = s.Page(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p.Rows[0].Images, 2)

	_, err = s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x/0", "http://x/2", ""}, refs(readRows(t, path)[0]))
}

func TestReorderThenSave(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;a;b;c\nA-2;;d;e\nA-3;f;;\n")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	_, err = s.Page(ctx, 1)
	require.NoError(t, err)

	row, err := s.MoveToStart(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, "c", row.Images[0].Reference)

	row, err = s.MoveToEnd(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, []string{row.Images[0].Reference, row.Images[1].Reference, row.Images[2].Reference})

	row, err = s.MoveToEnd(ctx, 0, 0)
	require.NoError(t, err)
	row, err = s.MoveToEnd(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "e", row.Images[0].Reference)
	assert.Equal(t, "d", row.Images[1].Reference)

	_, err = s.Save(ctx)
	require.NoError(t, err)
	rows := readRows(t, path)
	assert.Equal(t, []string{"b", "c", "a"}, refs(rows[0]))
	assert.Equal(t, []string{"e", "d", ""}, refs(rows[1]))
	// never viewed, but still saved with its images packed to the left
	assert.Equal(t, []string{"f", "", ""}, refs(rows[2]))

	// saving again changes nothing
	_, err = s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, rows, readRows(t, path))
}

func TestOutOfRangeMutationsAreNoops(t *testing.T) {
	s, _, _, cleanup := setup(t, header+"\nA-1;a;b;\n")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	for _, f := range []func() (interface{}, error){
		func() (interface{}, error) { return s.Delete(ctx, 0, 7) },
		func() (interface{}, error) { return s.MoveToStart(ctx, 0, 0) },
		func() (interface{}, error) { return s.MoveToStart(ctx, 0, -1) },
		func() (interface{}, error) { return s.MoveToEnd(ctx, 0, 1) },
		func() (interface{}, error) { return s.MoveToEnd(ctx, 0, 5) },
	} {
		_, err := f()
		assert.NoError(t, err)
	}
	p, err := s.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Rows[0].Images[0].Reference)
	assert.Equal(t, "b", p.Rows[0].Images[1].Reference)

	_, err = s.Delete(ctx, 3, 0)
	assert.True(t, striperr.IsMissing(err))
	_, err = s.MoveToEnd(ctx, -1, 0)
	assert.True(t, striperr.IsMissing(err))
}

func TestImagesResolvedOnce(t *testing.T) {
	s, f, _, cleanup := setup(t, header+"\nA-1;a;b;\nA-2;a;;x\n", "x")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	_, err = s.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)

	_, err = s.Page(ctx, 1)
	require.NoError(t, err)
	_, err = s.MoveToEnd(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, f.calls)
}

func TestPagination(t *testing.T) {
	s, _, _, cleanup := setup(t, header+"\n1;;;\n2;;;\n3;;;\n4;;;\n5;;;\n")
	defer cleanup()
	ctx := context.Background()
	cols, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cols.Pages)
	assert.Equal(t, 5, cols.Rows)
	assert.True(t, cols.DisplayColumnFound)
	assert.Len(t, cols.ImageColumns, 3)

	p, err := s.Page(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Start)
	assert.Equal(t, 5, p.End)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, "5", p.Rows[0].Article)
	assert.Empty(t, p.Rows[0].Images)

	p, err = s.Page(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
}

func TestLoadFailure(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;a;b;c\n")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	_, err = s.Load(ctx, path+".missing")
	require.Error(t, err)
	apiErr, ok := err.(*striperr.Error)
	require.True(t, ok)
	assert.Equal(t, striperr.User, apiErr.Type)

	// no table is assumed after a failed load
	_, err = s.Page(ctx, 1)
	assert.Equal(t, ErrNoTable, err)
	_, err = s.Save(ctx)
	assert.Equal(t, ErrNoTable, err)
	_, err = s.Columns(ctx)
	assert.Equal(t, ErrNoTable, err)

	// a malformed file is a load failure too
	require.NoError(t, ioutil.WriteFile(path, []byte("a;b\n1;2;3\n"), 0644))
	_, err = s.Load(ctx, "")
	assert.Error(t, err)
	_, err = s.Page(ctx, 1)
	assert.Equal(t, ErrNoTable, err)
}

func TestLoadOutsideTableDirIsRefused(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;a;b;c\n")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	other, err := ioutil.TempDir("", "session-other")
	require.NoError(t, err)
	defer os.RemoveAll(other)
	outside := filepath.Join(other, "secret.csv")
	require.NoError(t, ioutil.WriteFile(outside, []byte("user;password\nroot;hunter2\n"), 0644))

	for _, p := range []string{
		outside,
		filepath.Join(filepath.Dir(path), "..", filepath.Base(other), "secret.csv"),
		"/etc/passwd",
	} {
		_, err = s.Load(ctx, p)
		require.Error(t, err, p)
		apiErr, ok := err.(*striperr.Error)
		require.True(t, ok)
		assert.Equal(t, striperr.User, apiErr.Type)
	}

	// the table loaded before is still there, and is what gets exported
	cols, err := s.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, path, cols.Path)
	b, err := s.Export(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hunter2")
}

func TestLoadWithoutTableDirOnlyAllowsConfiguredPath(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;a;b;c\n")
	defer cleanup()
	ctx := context.Background()

	sibling := filepath.Join(filepath.Dir(path), "other.csv")
	require.NoError(t, ioutil.WriteFile(sibling, []byte(header+"\nB-1;d;;\n"), 0644))

	s.config.TableDir = ""
	_, err := s.Load(ctx, sibling)
	assert.Error(t, err)
	_, err = s.Load(ctx, path)
	assert.NoError(t, err)

	s.config.TableDir = filepath.Dir(path)
	cols, err := s.Load(ctx, sibling)
	require.NoError(t, err)
	assert.Equal(t, 1, cols.Rows)
}

func TestSaveFailureKeepsState(t *testing.T) {
	s, _, path, cleanup := setup(t, header+"\nA-1;a;b;c\n")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)
	_, err = s.Delete(ctx, 0, 0)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	require.NoError(t, os.Rename(dir, dir+".moved"))
	defer os.Rename(dir+".moved", dir)

	_, err = s.Save(ctx)
	require.Error(t, err)
	apiErr, ok := err.(*striperr.Error)
	require.True(t, ok)
	assert.Equal(t, striperr.Server, apiErr.Type)

	p, err := s.Page(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, p.Rows[0].Images, 2)

	require.NoError(t, os.Rename(dir+".moved", dir))
	_, err = s.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", ""}, refs(readRows(t, path)[0]))
}

func TestExportDoesNotSave(t *testing.T) {
	in := header + "\nA-1;a;;c\n"
	s, _, path, cleanup := setup(t, in)
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)
	_, err = s.MoveToStart(ctx, 0, 1)
	require.NoError(t, err)

	b, err := s.Export(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "A-1;c;a;\n"), string(b))

	onDisk, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, string(onDisk))
}

func TestImage(t *testing.T) {
	s, _, _, cleanup := setup(t, header+"\nA-1;a;bad;\n", "bad")
	defer cleanup()
	ctx := context.Background()
	_, err := s.Load(ctx, "")
	require.NoError(t, err)

	_, err = s.Image(ctx, string(imagecache.DigestOf("a")))
	assert.True(t, striperr.IsMissing(err), "not resolved yet")

	_, err = s.Page(ctx, 1)
	require.NoError(t, err)

	b, err := s.Image(ctx, string(imagecache.DigestOf("a")))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), img.Bounds())

	_, err = s.Image(ctx, string(imagecache.DigestOf("bad")))
	assert.True(t, striperr.IsMissing(err))
	_, err = s.Image(ctx, "../secrets")
	assert.True(t, striperr.IsMissing(err))
}
