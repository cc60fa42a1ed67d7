package point

import (
	"errors"
	"testing"
)

func TestPriorityArraySetAndActive(t *testing.T) {
	var pa PriorityArray

	if slot, v := pa.Active(); slot != 0 || v != nil {
		t.Fatalf("empty array: Active() = (%d, %v), want (0, nil)", slot, v)
	}

	if err := pa.Set(8, AnalogValue(50)); err != nil {
		t.Fatalf("Set(8): %v", err)
	}
	if err := pa.Set(16, AnalogValue(10)); err != nil {
		t.Fatalf("Set(16): %v", err)
	}

	slot, v := pa.Active()
	if slot != 8 {
		t.Errorf("Active() slot = %d, want 8", slot)
	}
	if v == nil || v.Analog != 50 {
		t.Errorf("Active() value = %v, want analog 50", v)
	}

	// Clearing slot 8 exposes slot 16.
	if err := pa.Clear(8); err != nil {
		t.Fatalf("Clear(8): %v", err)
	}
	slot, v = pa.Active()
	if slot != 16 || v == nil || v.Analog != 10 {
		t.Errorf("after clear: Active() = (%d, %v), want (16, analog 10)", slot, v)
	}
}

func TestPriorityArraySlotValidation(t *testing.T) {
	var pa PriorityArray

	tests := []struct {
		name string
		slot int
	}{
		{"zero", 0},
		{"negative", -1},
		{"seventeen", 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := pa.Set(tt.slot, AnalogValue(1)); !errors.Is(err, ErrInvalidPriority) {
				t.Errorf("Set(%d) error = %v, want ErrInvalidPriority", tt.slot, err)
			}
			if err := pa.Clear(tt.slot); !errors.Is(err, ErrInvalidPriority) {
				t.Errorf("Clear(%d) error = %v, want ErrInvalidPriority", tt.slot, err)
			}
		})
	}
}

func TestPriorityArrayClearEmptySlot(t *testing.T) {
	var pa PriorityArray
	if err := pa.Clear(5); err != nil {
		t.Errorf("Clear on empty slot should be a no-op, got %v", err)
	}
}

func TestHigherPriorityActive(t *testing.T) {
	var pa PriorityArray
	if err := pa.Set(8, BinaryValue(true)); err != nil {
		t.Fatalf("Set(8): %v", err)
	}

	tests := []struct {
		name  string
		below int
		want  bool
	}{
		{"slot above occupied", 16, true},
		{"just below occupied", 9, true},
		{"at occupied slot", 8, false},
		{"above occupied slot", 3, false},
		{"slot one never gated", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pa.HigherPriorityActive(tt.below); got != tt.want {
				t.Errorf("HigherPriorityActive(%d) = %v, want %v", tt.below, got, tt.want)
			}
		})
	}
}

func TestPriorityArraySnapshotIsCopy(t *testing.T) {
	var pa PriorityArray
	if err := pa.Set(1, AnalogValue(7)); err != nil {
		t.Fatalf("Set(1): %v", err)
	}

	snap := pa.Snapshot()
	if len(snap) != NumPrioritySlots {
		t.Fatalf("snapshot length = %d, want %d", len(snap), NumPrioritySlots)
	}
	if snap[0] == nil || snap[0].Analog != 7 {
		t.Fatalf("snapshot[0] = %v, want analog 7", snap[0])
	}

	// Mutating the snapshot must not leak into the array.
	snap[0].Analog = 99
	if _, v := pa.Active(); v.Analog != 7 {
		t.Errorf("array mutated through snapshot: got %v", v.Analog)
	}
}
