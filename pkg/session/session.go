// Package session holds the state of one editing session: the loaded
// table, the order of every row's images, and the resolved images.
// Every operator action runs to completion, one at a time.
package session

import (
	"bytes"
	"context"
	"image/png"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/catalogtools/stripd/pkg/api"
	"github.com/catalogtools/stripd/pkg/imagecache"
	"github.com/catalogtools/stripd/pkg/order"
	"github.com/catalogtools/stripd/pkg/page"
	"github.com/catalogtools/stripd/pkg/strip"
	"github.com/catalogtools/stripd/pkg/table"
)

const (
	DefaultPageSize      = 10
	DefaultDisplayColumn = "Код артикула"
)

// Resolver is what the session needs from the image cache.
type Resolver interface {
	ResolveAll(ctx context.Context, references []string) map[imagecache.Digest]imagecache.Entry
	Lookup(imagecache.Digest) (imagecache.Entry, bool)
}

type Config struct {
	// Path is the table file loaded at start, and saved to
	Path string
	// TableDir, if set, is a directory from which any table may be
	// loaded. Otherwise only Path can be loaded.
	TableDir string

	Table         table.Options
	PageSize      int
	DisplayColumn string
	Version       string
}

type Session struct {
	config   Config
	resolver Resolver
	logger   log.Logger

	mu     sync.Mutex
	path   string
	table  *table.Table
	orders *order.Store
}

var _ api.Server = &Session{}

// New creates a session. Nothing is loaded until Load is called.
func New(config Config, resolver Resolver, logger log.Logger) *Session {
	if config.PageSize < 1 {
		config.PageSize = DefaultPageSize
	}
	if config.DisplayColumn == "" {
		config.DisplayColumn = DefaultDisplayColumn
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Session{
		config:   config,
		resolver: resolver,
		logger:   logger,
		path:     config.Path,
		orders:   order.NewStore(),
	}
}

func (s *Session) Ping(ctx context.Context) error {
	return nil
}

func (s *Session) Version(ctx context.Context) (string, error) {
	return s.config.Version, nil
}

// Load replaces the table. If it cannot be loaded, the session is left
// with no table at all, rather than the one before. A path that is
// neither the configured table nor inside the table directory is
// refused, and the current table is kept.
func (s *Session) Load(ctx context.Context, path string) (api.Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == "" {
		path = s.config.Path
	} else if !s.loadable(path) {
		s.logger.Log("err", "refused to load table outside the table directory", "path", path)
		return api.Columns{}, tableNotAllowedError(path)
	}
	s.table = nil
	s.orders.Reset()
	s.path = path

	if path == "" {
		return api.Columns{}, tableLoadError(path, errors.New("no path given"))
	}
	t, err := table.LoadFile(path, s.config.Table)
	if err != nil {
		s.logger.Log("err", err, "path", path)
		return api.Columns{}, tableLoadError(path, err)
	}
	s.table = t
	s.logger.Log("loaded", path, "rows", len(t.Rows), "image_columns", len(t.ImageColumns))
	return s.columns(), nil
}

// loadable says whether path is the configured table, or a file
// inside the table directory. Symlinks are followed where they exist.
func (s *Session) loadable(path string) bool {
	p := canonical(path)
	if s.config.Path != "" && p == canonical(s.config.Path) {
		return true
	}
	if s.config.TableDir == "" {
		return false
	}
	rel, err := filepath.Rel(canonical(s.config.TableDir), p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// the file may not exist yet; resolve its directory instead
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

func (s *Session) Columns(ctx context.Context) (api.Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return api.Columns{}, ErrNoTable
	}
	return s.columns(), nil
}

func (s *Session) columns() api.Columns {
	t := s.table
	cols := api.Columns{
		Path:          s.path,
		Header:        append([]string(nil), t.Header...),
		ImageColumns:  []string{},
		DisplayColumn: s.config.DisplayColumn,
		Rows:          len(t.Rows),
		Pages:         page.Count(s.config.PageSize, len(t.Rows)),
	}
	cols.DisplayColumnFound = t.Column(s.config.DisplayColumn) >= 0
	for _, c := range t.ImageColumns {
		cols.ImageColumns = append(cols.ImageColumns, t.Header[c])
	}
	return cols
}

// rowOrder makes sure a row has an order that is valid for its
// current images, and returns the row's image list with that order.
func (s *Session) rowOrder(row int) ([]string, order.Order) {
	images := strip.ImageList(strip.Slots(s.table.Rows[row], s.table.ImageColumns))
	s.orders.Init(row, len(images))
	// Reconcile guards orders set before the row's slots last changed.
	s.orders.Reconcile(row, len(images))
	o, _ := s.orders.Get(row)
	return images, o
}

// rowView builds what the operator sees of a row; images are filled
// in by resolveRows.
func (s *Session) rowView(row int) api.Row {
	images, o := s.rowOrder(row)
	view := api.Row{Index: row, Images: []api.Image{}}
	if c := s.table.Column(s.config.DisplayColumn); c >= 0 && c < len(s.table.Rows[row]) {
		view.Article = s.table.Rows[row][c]
	}
	for pos, i := range o {
		view.Images = append(view.Images, api.Image{
			Position:   pos,
			ImageIndex: i,
			Reference:  images[i],
			Digest:     string(imagecache.DigestOf(images[i])),
		})
	}
	return view
}

// resolveRows fetches (or recalls) every image in the rows given. It
// is called without holding the session lock.
func (s *Session) resolveRows(ctx context.Context, rows []api.Row) {
	var refs []string
	for _, r := range rows {
		for _, img := range r.Images {
			refs = append(refs, img.Reference)
		}
	}
	if len(refs) == 0 {
		return
	}
	entries := s.resolver.ResolveAll(ctx, refs)
	for _, r := range rows {
		for k := range r.Images {
			img := &r.Images[k]
			e, ok := entries[imagecache.Digest(img.Digest)]
			if !ok {
				continue
			}
			img.Available = e.Available()
			if e.Size != imagecache.UnknownSize {
				size := e.Size
				img.Size = &size
			}
			if e.Err != nil {
				img.Error = e.Err.Error()
			}
		}
	}
}

// Page returns the rows on a page, with their images. Page numbers
// start at 1; out of range numbers are clamped.
func (s *Session) Page(ctx context.Context, number int) (api.Page, error) {
	s.mu.Lock()
	if s.table == nil {
		s.mu.Unlock()
		return api.Page{}, ErrNoTable
	}
	total := len(s.table.Rows)
	number = page.Clamp(number, s.config.PageSize, total)
	start, end := page.Range(number, s.config.PageSize, total)
	p := api.Page{
		Page:      number,
		Pages:     page.Count(s.config.PageSize, total),
		PageSize:  s.config.PageSize,
		TotalRows: total,
		Start:     start,
		End:       end,
		Rows:      []api.Row{},
	}
	for row := start; row < end; row++ {
		p.Rows = append(p.Rows, s.rowView(row))
	}
	s.mu.Unlock()

	s.resolveRows(ctx, p.Rows)
	return p, nil
}

// mutate applies change to a row's order, then immediately writes the
// new order into the row's slots. After that the slots are in display
// order, so the row's order becomes the identity again; materializing
// the row any number of times more changes nothing.
func (s *Session) mutate(ctx context.Context, row int, change func(*order.Store)) (api.Row, error) {
	s.mu.Lock()
	if s.table == nil {
		s.mu.Unlock()
		return api.Row{}, ErrNoTable
	}
	if row < 0 || row >= len(s.table.Rows) {
		s.mu.Unlock()
		return api.Row{}, unknownRowError(row, len(s.table.Rows))
	}
	s.rowOrder(row)
	change(s.orders)
	s.materialize(row)
	view := s.rowView(row)
	s.mu.Unlock()

	rows := []api.Row{view}
	s.resolveRows(ctx, rows)
	return rows[0], nil
}

func (s *Session) materialize(row int) {
	o, _ := s.orders.Get(row)
	updated := strip.Apply(s.table.Rows[row], s.table.ImageColumns, o)
	s.table.Rows[row] = updated
	n := len(strip.ImageList(strip.Slots(updated, s.table.ImageColumns)))
	s.orders.Set(row, order.Identity(n))
}

// Delete drops an image from a row. The slot it was in is emptied, and
// the images after it move up.
func (s *Session) Delete(ctx context.Context, row, imageIndex int) (api.Row, error) {
	return s.mutate(ctx, row, func(o *order.Store) { o.Delete(row, imageIndex) })
}

// MoveToStart moves the image at a position in the strip to the
// front.
func (s *Session) MoveToStart(ctx context.Context, row, position int) (api.Row, error) {
	return s.mutate(ctx, row, func(o *order.Store) { o.MoveToStart(row, position) })
}

// MoveToEnd moves the image at a position in the strip to the back.
func (s *Session) MoveToEnd(ctx context.Context, row, position int) (api.Row, error) {
	return s.mutate(ctx, row, func(o *order.Store) { o.MoveToEnd(row, position) })
}

// materialized returns a copy of the table with every row's slots
// written in that row's order, as of a snapshot of all orders taken
// up front. Rows never looked at get the identity order. Must be
// called with s.mu held.
func (s *Session) materialized() *table.Table {
	snapshot := s.orders.Snapshot()
	out := s.table.Clone()
	for i, row := range out.Rows {
		o, ok := snapshot[i]
		if !ok {
			o = order.Identity(len(strip.ImageList(strip.Slots(row, out.ImageColumns))))
		}
		out.Rows[i] = strip.Apply(row, out.ImageColumns, o)
	}
	return out
}

// Save writes every row, not just those on the current page, back to
// the file the table was loaded from. If that fails, nothing in the
// session changes and the save can be retried.
func (s *Session) Save(ctx context.Context) (api.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return api.SaveResult{}, ErrNoTable
	}

	out := s.materialized()
	if err := table.SaveFile(s.path, out, s.config.Table); err != nil {
		s.logger.Log("err", err, "path", s.path)
		return api.SaveResult{}, tableSaveError(s.path, err)
	}

	s.table = out
	for row := range s.orders.Snapshot() {
		n := len(strip.ImageList(strip.Slots(out.Rows[row], out.ImageColumns)))
		s.orders.Set(row, order.Identity(n))
	}
	s.logger.Log("saved", s.path, "rows", len(out.Rows))
	return api.SaveResult{Path: s.path, Rows: len(out.Rows)}, nil
}

// Export returns the table as it would be saved, without saving it.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, ErrNoTable
	}
	var buf bytes.Buffer
	if err := s.materialized().Write(&buf, s.config.Table); err != nil {
		return nil, errors.Wrap(err, "exporting table")
	}
	return buf.Bytes(), nil
}

// Image returns a resolved image, PNG encoded.
func (s *Session) Image(ctx context.Context, digest string) ([]byte, error) {
	d, err := imagecache.ParseDigest(digest)
	if err != nil {
		return nil, unknownImageError(digest, err)
	}
	e, ok := s.resolver.Lookup(d)
	if !ok {
		return nil, unknownImageError(digest, errors.New("image not resolved"))
	}
	if !e.Available() {
		reason := e.Err
		if reason == nil {
			reason = errors.New("image unavailable")
		}
		return nil, unknownImageError(digest, reason)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, e.Image); err != nil {
		return nil, errors.Wrap(err, "encoding image")
	}
	return buf.Bytes(), nil
}
