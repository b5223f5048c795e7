// Package metric provides Prometheus metrics for otpslot.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, device counters and textfile output
//   - collector.go: keyslot occupancy collected at gather time
//
// otpslot never listens on the network. Metrics are written in the
// node_exporter textfile format when metrics.textfile is configured.
package metric
