package point

import "fmt"

// NumPrioritySlots is the number of slots in a priority array. Slot 1 is the
// highest priority, slot 16 the lowest.
const NumPrioritySlots = 16

// SimulationPriority is the slot the simulation engine writes at. Any
// occupied slot above it wins over simulated drift.
const SimulationPriority = 16

// PriorityArray is the 16-slot command arbitration structure carried by every
// commandable point. A nil entry means the slot is relinquished. The array is
// not safe for concurrent use on its own; the owning Point serialises access.
type PriorityArray struct {
	slots [NumPrioritySlots]*Value
}

func validSlot(slot int) bool {
	return slot >= 1 && slot <= NumPrioritySlots
}

// Set occupies a slot with a value.
//
// Parameters:
//   - slot: priority slot in [1,16], 1 highest
//   - v: the value to command
//
// Returns ErrInvalidPriority if the slot is out of range.
func (pa *PriorityArray) Set(slot int, v Value) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, slot)
	}
	val := v
	pa.slots[slot-1] = &val
	return nil
}

// Clear relinquishes a slot. Clearing an already-empty slot is not an error.
func (pa *PriorityArray) Clear(slot int) error {
	if !validSlot(slot) {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, slot)
	}
	pa.slots[slot-1] = nil
	return nil
}

// Get returns the value at a slot, or nil if the slot is relinquished or out
// of range.
func (pa *PriorityArray) Get(slot int) *Value {
	if !validSlot(slot) {
		return nil
	}
	if v := pa.slots[slot-1]; v != nil {
		cp := *v
		return &cp
	}
	return nil
}

// Active returns the lowest-numbered occupied slot and its value, or (0, nil)
// when every slot is relinquished.
func (pa *PriorityArray) Active() (int, *Value) {
	for i, v := range pa.slots {
		if v != nil {
			cp := *v
			return i + 1, &cp
		}
	}
	return 0, nil
}

// HigherPriorityActive reports whether any slot strictly above the given one
// (numerically lower) is occupied. The simulation engine calls this with its
// own slot to decide whether an external command currently owns the point.
func (pa *PriorityArray) HigherPriorityActive(below int) bool {
	if below < 1 {
		return false
	}
	if below > NumPrioritySlots {
		below = NumPrioritySlots + 1
	}
	for i := 0; i < below-1; i++ {
		if pa.slots[i] != nil {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the array as a fixed-length slice, nil entries
// for relinquished slots. Index 0 corresponds to slot 1.
func (pa *PriorityArray) Snapshot() []*Value {
	out := make([]*Value, NumPrioritySlots)
	for i, v := range pa.slots {
		if v != nil {
			cp := *v
			out[i] = &cp
		}
	}
	return out
}
