// Package table reads and writes the delimited catalog files whose
// rows carry image references.
//
// Every value is treated as text. The first record is the header;
// the image-slot columns are those whose name starts with a given
// prefix, and their order in the header is the slot order.
package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const (
	DefaultDelimiter   = ';'
	DefaultImagePrefix = "Изображения товаров"

	EncodingUTF8        = "utf-8"
	EncodingWindows1251 = "windows-1251"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options say how a file is laid out.
type Options struct {
	Delimiter   rune
	Encoding    string
	ImagePrefix string
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultDelimiter
	}
	if o.Encoding == "" {
		o.Encoding = EncodingUTF8
	}
	if o.ImagePrefix == "" {
		o.ImagePrefix = DefaultImagePrefix
	}
	return o
}

// Validate reports options that cannot be used to read or write a
// file.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch strings.ToLower(o.Encoding) {
	case EncodingUTF8, "utf8", EncodingWindows1251, "cp1251":
	default:
		return fmt.Errorf("unsupported encoding %q (use %s or %s)", o.Encoding, EncodingUTF8, EncodingWindows1251)
	}
	if o.Delimiter == '"' || o.Delimiter == '\r' || o.Delimiter == '\n' {
		return fmt.Errorf("invalid delimiter %q", o.Delimiter)
	}
	return nil
}

func (o Options) isWindows1251() bool {
	switch strings.ToLower(o.Encoding) {
	case EncodingWindows1251, "cp1251":
		return true
	}
	return false
}

// Table is a loaded file: the header, the rows, and which columns are
// image slots.
type Table struct {
	Header       []string
	Rows         [][]string
	ImageColumns []int

	// whether the source started with a UTF-8 byte order mark, so it
	// can be written back the same way
	bom bool
}

// Load reads a table. A header record is required, and every row must
// have as many fields as the header.
func Load(r io.Reader, opts Options) (*Table, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var bom bool
	if opts.isWindows1251() {
		r = charmap.Windows1251.NewDecoder().Reader(r)
	} else {
		br := bufio.NewReader(r)
		if peek, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(peek, utf8BOM) {
			br.Discard(len(utf8BOM))
			bom = true
		}
		r = br
	}

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("no header record")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	t := &Table{
		Header: header,
		bom:    bom,
	}
	for i, name := range header {
		if strings.HasPrefix(name, opts.ImagePrefix) {
			t.ImageColumns = append(t.ImageColumns, i)
		}
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading row %d", len(t.Rows)+1)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Write writes the table using the same layout Load understands.
func (t *Table) Write(w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	var enc io.WriteCloser
	if opts.isWindows1251() {
		enc = transform.NewWriter(w, charmap.Windows1251.NewEncoder())
		w = enc
	} else if t.bom {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter
	if err := cw.Write(t.Header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if enc != nil {
		// The encoder holds back input it has not finished converting.
		return errors.Wrap(enc.Close(), "encoding windows-1251")
	}
	return nil
}

// Column returns the position of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		Header:       append([]string(nil), t.Header...),
		ImageColumns: append([]int(nil), t.ImageColumns...),
		Rows:         make([][]string, len(t.Rows)),
		bom:          t.bom,
	}
	for i, row := range t.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// LoadFile loads the table at path.
func LoadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Load(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return t, nil
}

// SaveFile writes the table to path. It writes to a temporary file in
// the same directory first, so a failed save leaves the original file
// untouched.
func SaveFile(path string, t *Table, opts Options) error {
	tmp, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := t.Write(tmp, opts); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if fi, err := os.Stat(path); err == nil {
		os.Chmod(tmp.Name(), fi.Mode())
	}
	return os.Rename(tmp.Name(), path)
}
