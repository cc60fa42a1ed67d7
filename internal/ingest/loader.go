package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/vav-sim-core/internal/point"
)

// Loader errors.
var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("ingest: missing required column")

	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("ingest: empty input")
)

// Required columns. Description is optional.
var requiredColumns = []string{"Type", "Instance", "Name", "PresentValue"}

// RowFailure describes one row that could not be turned into a spec. The
// batch is never aborted by a bad row; failures are accumulated and reported.
type RowFailure struct {
	ID     string `json:"id"`
	Row    int    `json:"row"` // 1-based data row number, header excluded
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Result is the outcome of loading one batch of point definitions.
type Result struct {
	Specs    []point.Spec
	Failures []RowFailure
}

// FailureSummary groups failures by reason for compact reporting.
func (r Result) FailureSummary() map[string]int {
	if len(r.Failures) == 0 {
		return nil
	}
	out := make(map[string]int)
	for _, f := range r.Failures {
		out[f.Reason]++
	}
	return out
}

// Loader reads tabular point definitions into validated specs.
type Loader struct {
	logger point.Logger
}

// NewLoader creates a loader. A nil logger disables logging.
func NewLoader(logger point.Logger) *Loader {
	if logger == nil {
		logger = point.NopLogger()
	}
	return &Loader{logger: logger}
}

// LoadFile reads a CSV file of point definitions.
func (l *Loader) LoadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("opening points file: %w", err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads CSV point definitions from a reader.
//
// Each data row becomes either a point.Spec or a RowFailure; a malformed row
// never aborts the batch. Name collisions are resolved by appending the
// lowest free numeric suffix to later duplicates.
func (l *Loader) Load(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Result{}, ErrEmptyFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range requiredColumns {
		if _, ok := col[required]; !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var result Result
	usedNames := make(map[string]bool)

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failures = append(result.Failures, RowFailure{
				ID:     uuid.NewString(),
				Row:    row,
				Reason: fmt.Sprintf("unreadable row: %v", err),
			})
			continue
		}

		name := field(record, "Name")

		category, err := point.NormalizeCategory(field(record, "Type"))
		if err != nil {
			result.Failures = append(result.Failures, RowFailure{
				ID:     uuid.NewString(),
				Row:    row,
				Name:   name,
				Reason: fmt.Sprintf("unrecognised category %q", field(record, "Type")),
			})
			continue
		}

		instance, err := strconv.ParseUint(field(record, "Instance"), 10, 32)
		if err != nil {
			result.Failures = append(result.Failures, RowFailure{
				ID:     uuid.NewString(),
				Row:    row,
				Name:   name,
				Reason: fmt.Sprintf("invalid instance %q", field(record, "Instance")),
			})
			continue
		}

		if name == "" {
			result.Failures = append(result.Failures, RowFailure{
				ID:     uuid.NewString(),
				Row:    row,
				Reason: "empty name",
			})
			continue
		}

		deduped := point.DedupeName(name, usedNames)
		if deduped != name {
			l.logger.Warn("duplicate point name, renaming",
				"row", row, "name", name, "renamed", deduped)
		}
		usedNames[deduped] = true

		valueText := field(record, "PresentValue")
		description := field(record, "Description")

		spec := point.Spec{
			Category:     category,
			Instance:     uint32(instance),
			Name:         deduped,
			Description:  description,
			InitialValue: ParsePresentValue(valueText),
			Units:        InferUnits(name, valueText),
		}
		if category.Kind() == point.KindMultistate {
			spec.StateLabels = ParseStateLabels(description)
		}

		result.Specs = append(result.Specs, spec)
	}

	l.logger.Info("point definitions loaded",
		"specs", len(result.Specs), "failures", len(result.Failures))
	l.reportFailures(result)

	return result, nil
}

// reportFailures logs the grouped failure summary after a batch.
func (l *Loader) reportFailures(result Result) {
	summary := result.FailureSummary()
	if len(summary) == 0 {
		return
	}
	for reason, count := range summary {
		l.logger.Warn("rows skipped during ingestion", "reason", reason, "count", count)
	}
}
