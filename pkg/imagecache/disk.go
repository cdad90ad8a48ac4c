package imagecache

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
)

// DiskClient keeps each value in its own file, named by its key, in a
// single directory. The directory is created when the first value is
// stored.
type DiskClient struct {
	dir    string
	logger log.Logger
}

func NewDiskClient(dir string, logger log.Logger) *DiskClient {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &DiskClient{dir: dir, logger: logger}
}

func (c *DiskClient) path(k Keyer) string {
	return filepath.Join(c.dir, filepath.Base(k.Key()))
}

func (c *DiskClient) GetKey(k Keyer) ([]byte, error) {
	b, err := ioutil.ReadFile(c.path(k))
	if os.IsNotExist(err) {
		return nil, ErrNotCached
	}
	if err != nil {
		c.logger.Log("err", errors.Wrap(err, "reading from disk cache"))
		return nil, err
	}
	return b, nil
}

// SetKey writes the value to a temporary file and renames it into
// place, so readers never see a partly written image.
func (c *DiskClient) SetKey(k Keyer, v []byte) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}
	tmp, err := ioutil.TempFile(c.dir, ".tmp-")
	if err != nil {
		return errors.Wrap(err, "storing in disk cache")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(v); err != nil {
		tmp.Close()
		return errors.Wrap(err, "storing in disk cache")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "storing in disk cache")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(k))
}
