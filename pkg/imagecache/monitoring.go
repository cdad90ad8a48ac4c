package imagecache

import (
	"fmt"
	"time"

	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	stripmetrics "github.com/catalogtools/stripd/pkg/metrics"
)

var (
	cacheRequestDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "stripd",
		Subsystem: "cache",
		Name:      "request_duration_seconds",
		Help:      "Duration of image cache requests, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{stripmetrics.LabelBackend, stripmetrics.LabelMethod, stripmetrics.LabelSuccess})
	resolveCount = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: "stripd",
		Subsystem: "images",
		Name:      "resolved_total",
		Help:      "Image references resolved, by where the result came from.",
	}, []string{stripmetrics.LabelSource, stripmetrics.LabelSuccess})
	remoteDuration = prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: "stripd",
		Subsystem: "images",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of remote image fetches, in seconds.",
		Buckets:   stdprometheus.DefBuckets,
	}, []string{stripmetrics.LabelSuccess})
)

type instrumentedClient struct {
	backend string
	next    Client
}

// InstrumentClient records the duration of every request made to the
// backing store, labelled with the given backend name.
func InstrumentClient(backend string, c Client) Client {
	return &instrumentedClient{
		backend: backend,
		next:    c,
	}
}

func (i *instrumentedClient) GetKey(k Keyer) (_ []byte, err error) {
	defer func(begin time.Time) {
		cacheRequestDuration.With(
			stripmetrics.LabelBackend, i.backend,
			stripmetrics.LabelMethod, "GetKey",
			stripmetrics.LabelSuccess, fmt.Sprint(err == nil),
		).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return i.next.GetKey(k)
}

func (i *instrumentedClient) SetKey(k Keyer, v []byte) (err error) {
	defer func(begin time.Time) {
		cacheRequestDuration.With(
			stripmetrics.LabelBackend, i.backend,
			stripmetrics.LabelMethod, "SetKey",
			stripmetrics.LabelSuccess, fmt.Sprint(err == nil),
		).Observe(time.Since(begin).Seconds())
	}(time.Now())
	return i.next.SetKey(k, v)
}
