package point

import (
	"fmt"
	"sync"
	"time"
)

// Point is one live simulated data point. All access goes through methods;
// the embedded mutex makes every point safe for concurrent readers and
// writers independently of the rest of the registry.
//
// Input points hold a single scalar updated by the simulation engine.
// Commandable points (outputs and values) never store a present value:
// reads derive it from the priority array and the relinquish default.
type Point struct {
	mu sync.Mutex

	spec Spec

	// value is the stored scalar for input points; unused when commandable.
	value Value

	// priority and relinquishDefault are non-nil/meaningful only for
	// commandable points. The invariant is enforced at construction.
	priority          *PriorityArray
	relinquishDefault Value

	updatedAt time.Time
}

// New builds a point from a validated spec. Commandable categories get a
// fresh priority array with the spec's initial value as relinquish default;
// inputs get the initial value stored directly.
func New(spec Spec) (*Point, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	initial := ValueForKind(spec.Category.Kind(), spec.InitialValue)
	p := &Point{spec: spec, updatedAt: time.Now()}
	if spec.Category.Commandable() {
		p.priority = &PriorityArray{}
		p.relinquishDefault = initial
	} else {
		p.value = initial
	}
	return p, nil
}

// Name returns the point's unique name.
func (p *Point) Name() string { return p.spec.Name }

// Category returns the point's object category.
func (p *Point) Category() Category { return p.spec.Category }

// Instance returns the instance number within the category.
func (p *Point) Instance() uint32 { return p.spec.Instance }

// Kind returns the point's value shape.
func (p *Point) Kind() Kind { return p.spec.Category.Kind() }

// Commandable reports whether the point carries a priority array.
func (p *Point) Commandable() bool { return p.spec.Category.Commandable() }

// Units returns the point's engineering unit tag.
func (p *Point) Units() Unit { return p.spec.Units }

// Synthetic reports whether the point is a registry-made placeholder.
func (p *Point) Synthetic() bool { return p.spec.Synthetic }

// StateLabels returns the multistate labels, nil for non-multistate points.
func (p *Point) StateLabels() []string {
	if len(p.spec.StateLabels) == 0 {
		return nil
	}
	out := make([]string, len(p.spec.StateLabels))
	copy(out, p.spec.StateLabels)
	return out
}

// Spec returns a copy of the point's immutable spec.
func (p *Point) Spec() Spec {
	s := p.spec
	s.StateLabels = p.StateLabels()
	return s
}

// UpdatedAt returns the time of the last value or slot change.
func (p *Point) UpdatedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updatedAt
}

// checkValue validates a value against the point's kind and, for multistate
// points, the label range [1, numberOfStates].
func (p *Point) checkValue(v Value) error {
	if v.Kind != p.Kind() {
		return fmt.Errorf("%w: %s value on %s point %q", ErrInvalidValue, v.Kind, p.Kind(), p.spec.Name)
	}
	if v.Kind == KindMultistate && (v.State < 1 || v.State > len(p.spec.StateLabels)) {
		return fmt.Errorf("%w: state %d outside [1,%d] on %q", ErrInvalidValue, v.State, len(p.spec.StateLabels), p.spec.Name)
	}
	return nil
}

// PresentValue returns the externally observed value. For commandable points
// this is derived on every read: the lowest-numbered occupied slot, or the
// relinquish default when the array is empty.
func (p *Point) PresentValue() Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.priority == nil {
		return p.value
	}
	if _, v := p.priority.Active(); v != nil {
		return *v
	}
	return p.relinquishDefault
}

// WriteSlot commands or relinquishes one priority slot. A nil value
// relinquishes the slot.
//
// Parameters:
//   - slot: priority slot in [1,16]
//   - v: value to command, or nil to relinquish
//
// Returns ErrNotCommandable for input points, ErrInvalidPriority for a slot
// out of range, ErrInvalidValue for a value that does not fit the point.
func (p *Point) WriteSlot(slot int, v *Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.priority == nil {
		return fmt.Errorf("%w: %q", ErrNotCommandable, p.spec.Name)
	}
	if v == nil {
		if err := p.priority.Clear(slot); err != nil {
			return err
		}
	} else {
		if err := p.checkValue(*v); err != nil {
			return err
		}
		if err := p.priority.Set(slot, *v); err != nil {
			return err
		}
	}
	p.updatedAt = time.Now()
	return nil
}

// SetSimulated applies a simulation-engine update. For inputs the stored
// value is replaced. For commandable points the write lands at the
// simulation slot and is skipped entirely when any higher-priority slot is
// occupied (an external command owns the point). gated=false means the
// update was applied.
func (p *Point) SetSimulated(v Value) (gated bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkValue(v); err != nil {
		return false, err
	}
	if p.priority == nil {
		p.value = v
		p.updatedAt = time.Now()
		return false, nil
	}
	if p.priority.HigherPriorityActive(SimulationPriority) {
		return true, nil
	}
	if err := p.priority.Set(SimulationPriority, v); err != nil {
		return false, err
	}
	p.updatedAt = time.Now()
	return false, nil
}

// ForceSimulated applies a simulation update ignoring the gating rule. Used
// when the engine runs with the legacy always-drift policy.
func (p *Point) ForceSimulated(v Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkValue(v); err != nil {
		return err
	}
	if p.priority == nil {
		p.value = v
	} else if err := p.priority.Set(SimulationPriority, v); err != nil {
		return err
	}
	p.updatedAt = time.Now()
	return nil
}

// HigherPriorityActive reports whether an external command currently owns a
// commandable point. Always false for inputs.
func (p *Point) HigherPriorityActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.priority == nil {
		return false
	}
	return p.priority.HigherPriorityActive(SimulationPriority)
}

// RelinquishDefault returns the fallback value of a commandable point and
// whether the point has one.
func (p *Point) RelinquishDefault() (Value, bool) {
	if p.priority == nil {
		return Value{}, false
	}
	return p.relinquishDefault, true
}

// PrioritySnapshot returns a copy of the priority array, or nil for inputs.
// Index 0 corresponds to slot 1.
func (p *Point) PrioritySnapshot() []*Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.priority == nil {
		return nil
	}
	return p.priority.Snapshot()
}

// Snapshot is a read-only view of a point used by the API, the bridge and
// the store.
type Snapshot struct {
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Instance    uint32    `json:"instance"`
	Description string    `json:"description,omitempty"`
	Kind        Kind      `json:"kind"`
	Commandable bool      `json:"commandable"`
	Units       Unit      `json:"units"`
	StateLabels []string  `json:"state_labels,omitempty"`
	Value       Value     `json:"value"`
	ActiveSlot  int       `json:"active_slot,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns the point's current read-only view.
func (p *Point) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		Name:        p.spec.Name,
		Category:    p.spec.Category,
		Instance:    p.spec.Instance,
		Description: p.spec.Description,
		Kind:        p.Kind(),
		Commandable: p.priority != nil,
		Units:       p.spec.Units,
		UpdatedAt:   p.updatedAt,
	}
	if len(p.spec.StateLabels) > 0 {
		snap.StateLabels = make([]string, len(p.spec.StateLabels))
		copy(snap.StateLabels, p.spec.StateLabels)
	}
	if p.priority == nil {
		snap.Value = p.value
		return snap
	}
	if slot, v := p.priority.Active(); v != nil {
		snap.ActiveSlot = slot
		snap.Value = *v
	} else {
		snap.Value = p.relinquishDefault
	}
	return snap
}
