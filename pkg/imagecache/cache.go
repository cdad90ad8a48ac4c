package imagecache

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"regexp"

	striperr "github.com/catalogtools/stripd/pkg/errors"
)

var (
	ErrNotCached = &striperr.Error{
		Type: striperr.Missing,
		Err:  errors.New("item not in cache"),
		Help: `Image not in cache

The image has not been resolved yet. Look at the page it is on first.
`,
	}
)

type Reader interface {
	// GetKey gets the value at a key
	GetKey(k Keyer) ([]byte, error)
}

type Writer interface {
	// SetKey sets the value at a key
	SetKey(k Keyer, v []byte) error
}

type Client interface {
	Reader
	Writer
}

// An interface to provide the key under which to store the data
type Keyer interface {
	Key() string
}

// Digest is the hex MD5 of an image reference.
type Digest string

var digestRE = regexp.MustCompile(`^[0-9a-f]{32}$`)

// DigestOf returns the digest naming the cache slot for reference.
func DigestOf(reference string) Digest {
	sum := md5.Sum([]byte(reference))
	return Digest(hex.EncodeToString(sum[:]))
}

// ParseDigest checks that s looks like a digest.
func ParseDigest(s string) (Digest, error) {
	if !digestRE.MatchString(s) {
		return "", errors.New("malformed image digest " + s)
	}
	return Digest(s), nil
}

type imageKey struct {
	digest Digest
}

// NewImageKey returns the key for a cached image. Images are always
// stored PNG-encoded.
func NewImageKey(d Digest) Keyer {
	return &imageKey{d}
}

func (k *imageKey) Key() string {
	return string(k.digest) + ".png"
}
