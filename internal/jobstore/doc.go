// Package jobstore persists resolved generation jobs in SQLite for the CLI's
// history views. Records are written once, when a job settles; in-flight
// progress is deliberately not durable.
package jobstore
