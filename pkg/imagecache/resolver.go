package imagecache

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/catalogtools/stripd/pkg/fetch"
	stripmetrics "github.com/catalogtools/stripd/pkg/metrics"
)

// UnknownSize is the Size of an entry whose byte size could not be
// determined.
const UnknownSize = fetch.UnknownSize

// DefaultBurst is the most images fetched at once for a page.
const DefaultBurst = 10

// DefaultTimeout bounds a single resolution, which runs apart from
// the request that started it.
const DefaultTimeout = 30 * time.Second

// Entry is the result of resolving one reference. A nil Image means
// the image is absent, and Err says why.
type Entry struct {
	Digest    Digest
	Reference string
	Image     image.Image
	Size      int64
	Err       error
}

func (e Entry) Available() bool {
	return e.Image != nil
}

// FetchFunc fetches and decodes the image at reference.
type FetchFunc func(ctx context.Context, client *http.Client, reference string) (image.Image, int64, error)

// Resolver turns references into images, consulting the backing store
// before the network, and remembering each result for as long as it
// lives. It is safe for concurrent use.
type Resolver struct {
	cache  Client
	client *http.Client
	fetch  FetchFunc
	burst   int
	timeout time.Duration
	logger  log.Logger

	mu    sync.RWMutex
	memo  map[Digest]Entry
	group singleflight.Group
}

type ResolverConfig struct {
	Cache   Client
	HTTP    *http.Client
	Fetch   FetchFunc
	Burst   int
	Timeout time.Duration
	Logger  log.Logger
}

func NewResolver(config ResolverConfig) *Resolver {
	r := &Resolver{
		cache:   config.Cache,
		client:  config.HTTP,
		fetch:   config.Fetch,
		burst:   config.Burst,
		timeout: config.Timeout,
		logger:  config.Logger,
		memo:    map[Digest]Entry{},
	}
	if r.fetch == nil {
		r.fetch = fetch.Fetch
	}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.burst <= 0 {
		r.burst = DefaultBurst
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.logger == nil {
		r.logger = log.NewNopLogger()
	}
	return r
}

// Lookup returns the remembered result for a digest, if the reference
// has been resolved already.
func (r *Resolver) Lookup(d Digest) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.memo[d]
	return e, ok
}

// Resolve returns the image for reference. Failures are reported in
// the entry, never as an error, and are remembered like successes.
//
// Callers asking for the same reference at once share one resolution.
// It runs detached from any one caller's ctx, bounded by the resolver's
// timeout, so a caller giving up does not fail the others; that caller
// alone gets an entry carrying ctx's error. A resolution that times out
// is not remembered, so it will be tried again next time.
func (r *Resolver) Resolve(ctx context.Context, reference string) Entry {
	d := DigestOf(reference)
	if e, ok := r.Lookup(d); ok {
		resolveCount.With(stripmetrics.LabelSource, stripmetrics.SourceMemo, stripmetrics.LabelSuccess, strconv.FormatBool(e.Available())).Add(1)
		return e
	}
	if err := ctx.Err(); err != nil {
		return Entry{Digest: d, Reference: reference, Size: UnknownSize, Err: err}
	}

	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(string(d), func() (interface{}, error) {
		if e, ok := r.Lookup(d); ok {
			return e, nil
		}
		workCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()
		e := r.resolve(workCtx, reference, d)
		if e.Available() || workCtx.Err() == nil {
			r.mu.Lock()
			r.memo[d] = e
			r.mu.Unlock()
		}
		return e, nil
	})
	select {
	case res := <-ch:
		return res.Val.(Entry)
	case <-ctx.Done():
		return Entry{Digest: d, Reference: reference, Size: UnknownSize, Err: ctx.Err()}
	}
}

// ResolveAll resolves references concurrently, at most burst at a
// time, and returns the results by digest.
func (r *Resolver) ResolveAll(ctx context.Context, references []string) map[Digest]Entry {
	var (
		mu      sync.Mutex
		results = make(map[Digest]Entry, len(references))
		g       errgroup.Group
	)
	g.SetLimit(r.burst)
	seen := map[Digest]bool{}
	for _, ref := range references {
		d := DigestOf(ref)
		if seen[d] {
			continue
		}
		seen[d] = true
		ref := ref
		g.Go(func() error {
			e := r.Resolve(ctx, ref)
			mu.Lock()
			results[e.Digest] = e
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

func (r *Resolver) resolve(ctx context.Context, reference string, d Digest) Entry {
	key := NewImageKey(d)
	entry := Entry{Digest: d, Reference: reference, Size: UnknownSize}

	if r.cache != nil {
		b, err := r.cache.GetKey(key)
		switch {
		case err == nil:
			img, _, decodeErr := image.Decode(bytes.NewReader(b))
			if decodeErr == nil {
				resolveCount.With(stripmetrics.LabelSource, stripmetrics.SourceStorage, stripmetrics.LabelSuccess, "true").Add(1)
				entry.Image = img
				entry.Size = int64(len(b))
				return entry
			}
			r.logger.Log("warning", "cached image does not decode, fetching again", "digest", d, "err", decodeErr)
		case err != ErrNotCached:
			r.logger.Log("warning", "error from cache", "digest", d, "err", err)
		}
	}

	begin := time.Now()
	img, size, err := r.fetch(ctx, r.client, reference)
	remoteDuration.With(stripmetrics.LabelSuccess, strconv.FormatBool(err == nil)).Observe(time.Since(begin).Seconds())
	resolveCount.With(stripmetrics.LabelSource, stripmetrics.SourceRemote, stripmetrics.LabelSuccess, strconv.FormatBool(err == nil)).Add(1)
	if err != nil {
		r.logger.Log("info", "image unavailable", "ref", reference, "err", err)
		entry.Err = err
		return entry
	}
	entry.Image = img
	entry.Size = size

	if r.cache != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			r.logger.Log("warning", "encoding image for cache", "ref", reference, "err", err)
		} else if err := r.cache.SetKey(key, buf.Bytes()); err != nil {
			r.logger.Log("warning", "storing image in cache", "ref", reference, "err", err)
		}
	}
	return entry
}
