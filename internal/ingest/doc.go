// Package ingest turns tabular point definitions into validated point specs.
// It contains the free-form value parser (numeric extraction, multistate
// state-label derivation, engineering-unit inference) and the CSV loader,
// which never aborts on a malformed row: bad rows become structured failures
// reported alongside the specs that did load.
package ingest
