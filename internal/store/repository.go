package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/vav-sim-core/internal/point"
)

// Repository defines the interface for point persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// SaveSpecs replaces the stored point definitions with the given batch.
	// Positions are assigned from slice order so LoadSpecs round-trips it.
	SaveSpecs(ctx context.Context, specs []point.Spec) error

	// LoadSpecs retrieves all stored point definitions in insertion order.
	// Returns ErrNoSpecs if nothing has been saved yet.
	LoadSpecs(ctx context.Context) ([]point.Spec, error)

	// HasSpecs reports whether any point definitions are stored.
	HasSpecs(ctx context.Context) (bool, error)

	// UpsertValue stores the last observed present value for a point.
	// Returns ErrPointNotFound if no spec with that name is stored.
	UpsertValue(ctx context.Context, name string, value float64, activeSlot int) error

	// LoadValues retrieves the last stored value for every point that has one.
	LoadValues(ctx context.Context) (map[string]StoredValue, error)
}

// StoredValue is the last persisted present value of a point.
type StoredValue struct {
	Value      float64
	ActiveSlot int
	UpdatedAt  time.Time
}

// DB is the slice of the database handle the repository needs. Satisfied by
// *database.DB, whose wrapped methods carry the error context; tests may
// substitute a bare *sql.DB.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite handle with the
// points schema migrated.
func NewSQLiteRepository(db DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveSpecs replaces the stored point definitions with the given batch.
//
// The replace is transactional: either the whole batch lands or the previous
// contents survive. point_values rows for points no longer in the batch are
// removed by the ON DELETE CASCADE on the foreign key.
func (r *SQLiteRepository) SaveSpecs(ctx context.Context, specs []point.Spec) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning spec save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM points"); err != nil {
		return fmt.Errorf("clearing points: %w", err)
	}

	query := `
		INSERT INTO points (
			name, category, instance, description, initial_value,
			units, state_labels, position, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC().Format(time.RFC3339)
	for i, spec := range specs {
		labelsJSON, err := marshalStateLabels(spec)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			spec.Name,
			string(spec.Category),
			spec.Instance,
			spec.Description,
			spec.InitialValue,
			string(spec.Units),
			labelsJSON,
			i,
			now,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("inserting point %q: %w: %w", spec.Name, point.ErrInvalidSpec, err)
			}
			return fmt.Errorf("inserting point %q: %w", spec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing spec save: %w", err)
	}
	return nil
}

// LoadSpecs retrieves all stored point definitions in insertion order.
func (r *SQLiteRepository) LoadSpecs(ctx context.Context) ([]point.Spec, error) {
	query := `
		SELECT name, category, instance, description, initial_value,
			units, state_labels
		FROM points
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var specs []point.Spec
	for rows.Next() {
		spec, err := scanSpec(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning point: %w", err)
		}
		specs = append(specs, *spec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points: %w", err)
	}

	if len(specs) == 0 {
		return nil, ErrNoSpecs
	}
	return specs, nil
}

// HasSpecs reports whether any point definitions are stored.
func (r *SQLiteRepository) HasSpecs(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points").Scan(&count)
	if err != nil {
		return false, fmt.Errorf("counting points: %w", err)
	}
	return count > 0, nil
}

// UpsertValue stores the last observed present value for a point.
// Each point has at most one row, overwritten in place.
func (r *SQLiteRepository) UpsertValue(ctx context.Context, name string, value float64, activeSlot int) error {
	query := `
		INSERT INTO point_values (name, value, active_slot, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			active_slot = excluded.active_slot,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		name,
		value,
		activeSlot,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("storing value for %q: %w", name, ErrPointNotFound)
		}
		return fmt.Errorf("storing value for %q: %w", name, err)
	}
	return nil
}

// LoadValues retrieves the last stored value for every point that has one.
func (r *SQLiteRepository) LoadValues(ctx context.Context) (map[string]StoredValue, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name, value, active_slot, updated_at FROM point_values")
	if err != nil {
		return nil, fmt.Errorf("querying point values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]StoredValue)
	for rows.Next() {
		var name, updatedAt string
		var sv StoredValue
		if err := rows.Scan(&name, &sv.Value, &sv.ActiveSlot, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning point value: %w", err)
		}
		sv.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at for %q: %w", name, err)
		}
		values[name] = sv
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating point values: %w", err)
	}
	return values, nil
}

// scanSpec scans a rows result into a point.Spec.
func scanSpec(rows *sql.Rows) (*point.Spec, error) {
	var spec point.Spec
	var category, units string
	var labelsJSON sql.NullString

	err := rows.Scan(
		&spec.Name,
		&category,
		&spec.Instance,
		&spec.Description,
		&spec.InitialValue,
		&units,
		&labelsJSON,
	)
	if err != nil {
		return nil, err
	}

	spec.Category = point.Category(category)
	spec.Units = point.Unit(units)

	if labelsJSON.Valid && labelsJSON.String != "" {
		if err := json.Unmarshal([]byte(labelsJSON.String), &spec.StateLabels); err != nil {
			return nil, fmt.Errorf("unmarshalling state_labels: %w", err)
		}
	}

	return &spec, nil
}

// marshalStateLabels encodes a spec's state labels, or NULL for
// non-multistate points.
func marshalStateLabels(spec point.Spec) (sql.NullString, error) {
	if len(spec.StateLabels) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(spec.StateLabels)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshalling state_labels for %q: %w", spec.Name, err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}

// isForeignKeyError checks if an error is a SQLite foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
