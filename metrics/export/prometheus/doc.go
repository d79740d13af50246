// Package prometheus exposes couchjwt engine metrics through
// client_golang.
//
// [Collector] implements prometheus.Collector: counters are published as
// couchjwt_*_total and latency histograms as couchjwt_*_latency_seconds.
// [Handler] is a convenience promhttp handler over a private registry.
//
// # What this package must NOT do
//
//   - Register into the global default registry.
//   - Mutate engine state.
package prometheus
