// Package store persists point definitions and last observed values.
//
// The simulator treats its source CSV (or the built-in default device) as
// authoritative at first start. The resulting point specs are written to
// SQLite so subsequent starts rebuild the same object set without the CSV,
// and the last present value of each point survives a restart.
//
// This is deliberately not a history store: point_values holds at most one
// row per point, overwritten in place on each flush.
package store
