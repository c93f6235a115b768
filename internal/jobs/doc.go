// Package jobs defines the job, segment, and anomaly entities and the
// SQLite-backed store that is the single writer of record for them.
package jobs
