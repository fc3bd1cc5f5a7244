package prommetrics

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RustMunkey/quickdash-sub005/core"
)

// Recorder exposes webhook counters and histograms through a prometheus
// registry. Metric families are created lazily on first use; the label
// set observed on the first sample fixes the family's label schema.
type Recorder struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

func NewRecorder(registerer prometheus.Registerer) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Recorder{
		registerer: registerer,
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
	}
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	metricName := sanitizeMetricName(name)
	if metricName == "" {
		return
	}
	keys, values := splitTags(tags)

	r.mu.Lock()
	vec, ok := r.counters[metricName]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricName,
			Help: name,
		}, keys)
		if err := r.registerer.Register(vec); err != nil {
			if already, isDup := err.(prometheus.AlreadyRegisteredError); isDup {
				if existing, matches := already.ExistingCollector.(*prometheus.CounterVec); matches {
					vec = existing
				}
			}
		}
		r.counters[metricName] = vec
	}
	r.mu.Unlock()

	counter, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return
	}
	counter.Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	metricName := sanitizeMetricName(name)
	if metricName == "" {
		return
	}
	keys, values := splitTags(tags)

	r.mu.Lock()
	vec, ok := r.histograms[metricName]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName,
			Help:    name,
			Buckets: prometheus.DefBuckets,
		}, keys)
		if err := r.registerer.Register(vec); err != nil {
			if already, isDup := err.(prometheus.AlreadyRegisteredError); isDup {
				if existing, matches := already.ExistingCollector.(*prometheus.HistogramVec); matches {
					vec = existing
				}
			}
		}
		r.histograms[metricName] = vec
	}
	r.mu.Unlock()

	histogram, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return
	}
	histogram.Observe(value)
}

func sanitizeMetricName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer(".", "_", "-", "_", " ", "_")
	return replacer.Replace(name)
}

func splitTags(tags map[string]string) ([]string, []string) {
	if len(tags) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, tags[key])
	}
	return keys, values
}

var _ core.MetricsRecorder = (*Recorder)(nil)
