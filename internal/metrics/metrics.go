// Package metrics exports gallery counters to Prometheus.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gallery"

// Metrics records upload, listing and signing activity. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	uploads         *prometheus.CounterVec
	uploadBytes     prometheus.Counter
	listings        *prometheus.CounterVec
	listingDuration prometheus.Histogram
	catalogSize     prometheus.Gauge
	signingFailures *prometheus.CounterVec
}

// New registers the gallery collectors with reg, or with the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload attempts by outcome.",
		}, []string{"outcome"}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully written to the object store.",
		}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Catalog builds by result.",
		}, []string{"result"}),
		listingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "listing_duration_seconds",
			Help:      "Time to list the container and sign every URL.",
			Buckets:   prometheus.DefBuckets,
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Number of images in the last successful listing.",
		}),
		signingFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signing_failures_total",
			Help:      "Links rendered as dead because no signed URL could be produced.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.uploadBytes, m.listings, m.listingDuration, m.catalogSize, m.signingFailures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register gallery metric: %w", err)
		}
	}
	return m, nil
}

// UploadFinished counts one upload attempt.
func (m *Metrics) UploadFinished(outcome string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
	if outcome == "accepted" && size > 0 {
		m.uploadBytes.Add(float64(size))
	}
}

// ListingFinished records one catalog build.
func (m *Metrics) ListingFinished(d time.Duration, entries int, err error) {
	if m == nil {
		return
	}
	m.listingDuration.Observe(d.Seconds())
	if err != nil {
		m.listings.WithLabelValues("error").Inc()
		return
	}
	m.listings.WithLabelValues("ok").Inc()
	m.catalogSize.Set(float64(entries))
}

// SigningFailed counts a dead link.
func (m *Metrics) SigningFailed(reason string) {
	if m == nil {
		return
	}
	m.signingFailures.WithLabelValues(reason).Inc()
}
