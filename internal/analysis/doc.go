// Package analysis detects subtitle anomalies with a deterministic rule
// pass and a batched semantic review against the external model.
package analysis
