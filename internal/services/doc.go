// Package services holds the business layer between the dataset pipeline
// and the HTTP transport.
//
// The Store loads every registered dataset once, keeps the cleaned tables
// in memory, and supports an atomic reload: a new snapshot is built in
// full before it replaces the old one, so readers never observe a
// half-loaded state.
//
// DashboardService answers selection queries (selector options, trend
// series, funding summaries) as chart-shaped data. It never mutates the
// stored tables; every answer is a pure function of the current snapshot
// and the selection.
//
// HealthService reports liveness, readiness, and per-dataset load status.
package services
