// Package services provides shared error classification and context helpers
// for the pipeline stages and their external collaborators.
package services
