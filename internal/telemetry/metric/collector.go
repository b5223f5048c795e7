package metric

import "github.com/prometheus/client_golang/prometheus"

// SlotSource reports keyslot occupancy. *keyslot.Store satisfies it.
type SlotSource interface {
	Count() int
	Capacity() int
}

// Collector reads keyslot occupancy when metrics are gathered, so the
// values are never stale.
type Collector struct {
	source   SlotSource
	enabled  *prometheus.Desc
	capacity *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source SlotSource) *Collector {
	return &Collector{
		source: source,
		enabled: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keyslots_enabled"),
			"Keyslots currently holding a key.", nil, nil),
		capacity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keyslots_capacity"),
			"Keyslots available on the device.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.enabled
	ch <- c.capacity
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, float64(c.source.Count()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.source.Capacity()))
}

// RegisterSlots adds a Collector over source to the registry.
func (r *Registry) RegisterSlots(source SlotSource) error {
	return r.registry.Register(NewCollector(source))
}
