package point

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything. Useful as a default
// for packages that accept a Logger.
func NopLogger() Logger { return noopLogger{} }

// Registry holds the live point set. Lookups are by unique name; iteration
// preserves insertion order so listings are stable across calls.
//
// All public methods are thread-safe. Individual points carry their own
// locks, so holding a *Point obtained from the registry is always safe.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Point
	order  []string
	logger Logger
}

// BuildOption configures BuildRegistry.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger       Logger
	placeholders bool
}

// WithLogger sets the logger used during the build and kept by the registry.
func WithLogger(l Logger) BuildOption {
	return func(o *buildOptions) { o.logger = l }
}

// WithoutPlaceholders disables placeholder synthesis for missing categories.
func WithoutPlaceholders() BuildOption {
	return func(o *buildOptions) { o.placeholders = false }
}

// BuildRegistry constructs the live point set from validated specs.
//
// Construction applies two repairs, in this order:
//  1. (category, instance) collisions: the later spec keeps its category and
//     is renumbered to the lowest free instance in that category.
//  2. Placeholder synthesis: any of the nine categories with no point gets
//     one synthetic point named "Placeholder <Category>", numbered from the
//     highest instance seen across all categories plus one, incrementing per
//     placeholder.
//
// A spec that fails validation aborts the build; repairs never do.
func BuildRegistry(specs []Spec, opts ...BuildOption) (*Registry, error) {
	options := buildOptions{logger: noopLogger{}, placeholders: true}
	for _, opt := range opts {
		opt(&options)
	}

	r := &Registry{
		byName: make(map[string]*Point, len(specs)),
		logger: options.logger,
	}

	taken := make(map[instanceKey]bool, len(specs))
	highest := uint32(0)

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("building registry: %w", err)
		}
		if _, dup := r.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidSpec, spec.Name)
		}

		if taken[instanceKey{spec.Category, spec.Instance}] {
			renumbered := lowestFree(taken, spec.Category)
			r.logger.Warn("instance collision, renumbering point",
				"name", spec.Name,
				"category", spec.Category,
				"instance", spec.Instance,
				"new_instance", renumbered)
			spec.Instance = renumbered
		}
		taken[instanceKey{spec.Category, spec.Instance}] = true
		if spec.Instance > highest {
			highest = spec.Instance
		}

		p, err := New(spec)
		if err != nil {
			return nil, fmt.Errorf("building registry: %w", err)
		}
		r.byName[spec.Name] = p
		r.order = append(r.order, spec.Name)
	}

	if options.placeholders {
		present := make(map[Category]bool)
		for _, name := range r.order {
			present[r.byName[name].Category()] = true
		}
		next := highest + 1
		for _, cat := range AllCategories() {
			if present[cat] {
				continue
			}
			spec := placeholderSpec(cat, next)
			next++
			p, err := New(spec)
			if err != nil {
				return nil, fmt.Errorf("building placeholder: %w", err)
			}
			r.byName[spec.Name] = p
			r.order = append(r.order, spec.Name)
			taken[instanceKey{spec.Category, spec.Instance}] = true
			r.logger.Debug("synthesised placeholder point",
				"name", spec.Name, "instance", spec.Instance)
		}
	}

	r.logger.Info("point registry built", "points", len(r.order))
	return r, nil
}

// instanceKey identifies one (category, instance) pair during the build.
type instanceKey struct {
	cat  Category
	inst uint32
}

// lowestFree returns the smallest instance number not yet taken in the
// category, starting from 1.
func lowestFree(taken map[instanceKey]bool, cat Category) uint32 {
	for i := uint32(1); ; i++ {
		if !taken[instanceKey{cat, i}] {
			return i
		}
	}
}

// placeholderSpec builds the synthetic spec for a category with no points.
func placeholderSpec(cat Category, instance uint32) Spec {
	spec := Spec{
		Category:    cat,
		Instance:    instance,
		Name:        "Placeholder " + cat.Display(),
		Description: "synthetic point, no source row",
		Units:       UnitNone,
		Synthetic:   true,
	}
	if cat.Kind() == KindMultistate {
		spec.StateLabels = []string{"State1", "State2"}
		spec.InitialValue = 1
	}
	return spec
}

// Get retrieves a point by name. Returns ErrPointNotFound if it does not
// exist.
func (r *Registry) Get(name string) (*Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPointNotFound, name)
	}
	return p, nil
}

// Has reports whether a point with the name exists.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok
}

// Names returns all point names in insertion order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns all points in insertion order.
func (r *Registry) All() []*Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Point, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// ByCategory returns the points of one category in insertion order.
func (r *Registry) ByCategory(cat Category) []*Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Point
	for _, name := range r.order {
		if p := r.byName[name]; p.Category() == cat {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of points.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Snapshots returns read-only views of every point in insertion order.
func (r *Registry) Snapshots() []Snapshot {
	points := r.All()
	out := make([]Snapshot, 0, len(points))
	for _, p := range points {
		out = append(out, p.Snapshot())
	}
	return out
}

// Stats summarises the registry for logging and monitoring.
type Stats struct {
	TotalPoints   int
	ByCategory    map[Category]int
	Commandable   int
	Placeholders  int
	HighestByName map[Category]uint32
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalPoints:   len(r.order),
		ByCategory:    make(map[Category]int),
		HighestByName: make(map[Category]uint32),
	}
	for _, name := range r.order {
		p := r.byName[name]
		stats.ByCategory[p.Category()]++
		if p.Commandable() {
			stats.Commandable++
		}
		if p.Synthetic() {
			stats.Placeholders++
		}
		if p.Instance() > stats.HighestByName[p.Category()] {
			stats.HighestByName[p.Category()] = p.Instance()
		}
	}
	return stats
}

// DedupeName returns a name unique among the given set, appending the lowest
// numeric suffix that frees it ("SpaceTemp" → "SpaceTemp2"). Shared by the
// loader and tests; the registry itself treats duplicates as errors.
func DedupeName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}

// SortSpecs orders specs by category then instance. Used by the store when
// reloading persisted definitions so rebuilds are deterministic.
func SortSpecs(specs []Spec) {
	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].Category != specs[j].Category {
			return specs[i].Category < specs[j].Category
		}
		return specs[i].Instance < specs[j].Instance
	})
}
