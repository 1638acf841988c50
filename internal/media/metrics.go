package media

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	uploads         *prometheus.CounterVec
	cleanupFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	uploads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Total number of media files stored, by media type and storage provider",
		},
		[]string{"type", "provider"},
	)
	cleanupFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "media_storage_cleanup_failures_total",
			Help: "Total number of assets that could not be removed from storage",
		},
	)

	if err := reg.Register(uploads); err != nil {
		return nil, err
	}
	if err := reg.Register(cleanupFailures); err != nil {
		return nil, err
	}

	return &Metrics{uploads: uploads, cleanupFailures: cleanupFailures}, nil
}

// uploaded counts a new media item. Linked media has no provider and is
// counted under "url".
func (m *Metrics) uploaded(mediaType, provider string) {
	if m == nil {
		return
	}
	if provider == "" {
		provider = "url"
	}
	m.uploads.WithLabelValues(mediaType, provider).Inc()
}

func (m *Metrics) cleanupFailed() {
	if m == nil {
		return
	}
	m.cleanupFailures.Inc()
}
