//go:build integration
// +build integration

package memcached

import (
	"context"
	"flag"
	"image"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"

	"github.com/catalogtools/stripd/pkg/imagecache"
)

var (
	memcachedIPs = flag.String("memcached-ips", "127.0.0.1:11211", "space-separated host:port values for memcached to connect to")
)

var val = []byte("test bytes")

var key = testKey("test")

type testKey string

func (t testKey) Key() string {
	return string(t)
}

func newClient() *MemcacheClient {
	return NewFixedServerMemcacheClient(MemcacheConfig{
		Timeout:        time.Second,
		UpdateInterval: 1 * time.Minute,
		Logger:         log.With(log.NewLogfmtLogger(os.Stderr), "component", "memcached"),
	}, strings.Fields(*memcachedIPs)...)
}

func TestMemcache_ReadWrite(t *testing.T) {
	mc := newClient()
	defer mc.Stop()

	err := mc.SetKey(key, val)
	if err != nil {
		t.Fatal(err)
	}

	cached, err := mc.GetKey(key)
	if err != nil {
		t.Fatal(err)
	}
	if string(cached) != string(val) {
		t.Fatalf("Should have returned %q, but got %q", string(val), string(cached))
	}

	if _, err := mc.GetKey(testKey("never-set")); err != imagecache.ErrNotCached {
		t.Fatalf("expected a cache miss, got %v", err)
	}
}

// The resolver should find an image stored through memcached by an
// earlier session, without fetching it again.
func TestMemcache_ResolverReadsBack(t *testing.T) {
	mc := newClient()
	defer mc.Stop()

	fetches := 0
	fetch := func(ctx context.Context, _ *http.Client, ref string) (image.Image, int64, error) {
		fetches++
		return image.NewGray(image.Rect(0, 0, 4, 4)), imagecache.UnknownSize, nil
	}
	ref := "http://example.com/" + time.Now().Format(time.RFC3339Nano) + ".png"

	first := imagecache.NewResolver(imagecache.ResolverConfig{Cache: mc, Fetch: fetch})
	if e := first.Resolve(context.Background(), ref); !e.Available() {
		t.Fatalf("expected image, got %v", e.Err)
	}
	second := imagecache.NewResolver(imagecache.ResolverConfig{Cache: mc, Fetch: fetch})
	e := second.Resolve(context.Background(), ref)
	if !e.Available() {
		t.Fatalf("expected image, got %v", e.Err)
	}
	if fetches != 1 {
		t.Fatalf("expected one fetch, got %d", fetches)
	}
	if e.Size <= 0 {
		t.Fatalf("expected the stored size, got %d", e.Size)
	}
}
