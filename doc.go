// Package metrics implements a server for collecting and storing application
// and system metrics for the reminder service.
//
// The server supports three types of metrics:
//   - Gauge: represents float64 values, the last-known reading of something
//   - Counter: represents int64 values, typically used for counting events or requests
//   - Histogram: represents a distribution of observed values, summarized
//     via nearest-rank p50/p95 percentiles
//
// At the center is an in-process collector that aggregates metrics between
// exports: an export takes a snapshot, zeroes counters and histogram samples,
// and keeps gauges as last-known values. The server flushes its own request
// metrics through this collector, and the agent uses the same collector to
// buffer the runtime and system metrics it ships.
//
// The server can store metrics in memory or in a PostgreSQL database. It also
// supports periodic saving of metrics to a file for persistence when using
// in-memory storage.
//
// Features:
//   - REST API for updating and retrieving metrics
//   - Support for batch updates
//   - Data compression using gzip
//   - Data integrity validation using HMAC SHA256 hashing
//   - Graceful shutdown with a final snapshot flush
//   - Structured logging
//   - Audit logging to file or HTTP endpoint
//
// The server includes an agent component that collects Go runtime metrics
// and system metrics (memory, per-core CPU utilization).
//
// Both server and agent components support configuration via command-line
// flags and environment variables.
package metrics
