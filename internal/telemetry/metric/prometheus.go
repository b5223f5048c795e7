package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "otpslot"

// Failure reasons used as the "reason" label of token failures.
const (
	ReasonSessionExhausted = "session_exhausted"
	ReasonPaddingNotFound  = "padding_not_found"
	ReasonDerivation       = "derivation"
	ReasonSlotNotFound     = "slot_not_found"
	ReasonSink             = "sink"
	ReasonOther            = "other"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	// OTP metrics
	TokensGenerated prometheus.Counter
	TokenFailures   *prometheus.CounterVec
	PaddingAttempts prometheus.Histogram
	SessionCounter  prometheus.Gauge

	// Keyslot metrics
	Boots      prometheus.Counter
	KeyChanges *prometheus.CounterVec
}

// NewRegistry creates a registry with the Go and process collectors and
// every otpslot metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		TokensGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_generated_total",
			Help:      "One-time passwords generated.",
		}),
		TokenFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_failures_total",
			Help:      "Failed OTP generations by reason.",
		}, []string{"reason"}),
		PaddingAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "padding_attempts",
			Help:      "Filler draws needed before a checksum padding was found.",
			Buckets:   []float64{1, 2, 3, 4, 8, 16, 64},
		}),
		SessionCounter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_counter",
			Help:      "Current value of the in-memory session counter.",
		}),
		Boots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boots_total",
			Help:      "Device boots (boot counters incremented).",
		}),
		KeyChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_changes_total",
			Help:      "Keyslot mutations by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.TokensGenerated,
		r.TokenFailures,
		r.PaddingAttempts,
		r.SessionCounter,
		r.Boots,
		r.KeyChanges,
	)

	return r
}

// Registerer exposes the underlying registry so storage engines can add
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for reading.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordToken counts a generated token and the filler draws it took.
func (r *Registry) RecordToken(paddingAttempts int) {
	r.TokensGenerated.Inc()
	r.PaddingAttempts.Observe(float64(paddingAttempts))
}

// RecordTokenFailure counts a failed generation.
func (r *Registry) RecordTokenFailure(reason string) {
	r.TokenFailures.WithLabelValues(reason).Inc()
}

// SetSessionCounter mirrors the device session counter.
func (r *Registry) SetSessionCounter(v uint8) {
	r.SessionCounter.Set(float64(v))
}

// IncBoot counts a boot.
func (r *Registry) IncBoot() {
	r.Boots.Inc()
}

// RecordKeyChange counts a keyslot mutation ("new", "delete", "reset",
// "restore").
func (r *Registry) RecordKeyChange(op string) {
	r.KeyChanges.WithLabelValues(op).Inc()
}

// WriteToTextfile writes every gathered metric to path in the
// node_exporter textfile format. The write is atomic.
func (r *Registry) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
