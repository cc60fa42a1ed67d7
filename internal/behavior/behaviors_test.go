package behavior

import (
	"math"
	"math/rand"
	"testing"
	"time"
)

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestTemperatureCycle(t *testing.T) {
	rng := newRand(1)
	period := 20 * time.Minute

	// Quarter period: sine peak. Noise is bounded, so the value must land
	// within noise of base+amplitude.
	got := TemperatureCycle(rng, period/4, 21, 6, 0.5, period)
	if got < 21+6-0.5 || got > 21+6+0.5 {
		t.Errorf("peak value = %v, want within 0.5 of 27", got)
	}

	// Zero noise is fully deterministic.
	got = TemperatureCycle(rng, 0, 21, 6, 0, period)
	if got != 21 {
		t.Errorf("t=0 value = %v, want exactly 21", got)
	}
}

func TestHumidityWalkStaysBounded(t *testing.T) {
	rng := newRand(42)

	tests := []struct {
		name  string
		start float64
	}{
		{"mid range", 40},
		{"at lower bound", 20},
		{"at upper bound", 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.start
			for i := 0; i < 10000; i++ {
				h = HumidityWalk(rng, h, 0.2, 20, 80)
				if h < 20 || h > 80 {
					t.Fatalf("walk escaped bounds at step %d: %v", i, h)
				}
			}
		})
	}
}

func TestFlowCycleNeverNegative(t *testing.T) {
	rng := newRand(7)
	period := 20 * time.Minute
	for i := 0; i < 1000; i++ {
		elapsed := time.Duration(i) * time.Second
		// A base below the amplitude would dip negative without the floor.
		if got := FlowCycle(rng, elapsed, 1, 10, 2, period); got < 0 {
			t.Fatalf("flow = %v at %v, want >= 0", got, elapsed)
		}
	}
}

func TestPressureWalkFloorsAtZero(t *testing.T) {
	rng := newRand(3)
	p := 0.1
	for i := 0; i < 10000; i++ {
		p = PressureWalk(rng, p, 5)
		if p < 0 {
			t.Fatalf("pressure = %v at step %d, want >= 0", p, i)
		}
	}
}

func TestBinaryFlipProbability(t *testing.T) {
	rng := newRand(11)

	// p=0 never flips, p=1 always flips.
	if BinaryFlip(rng, true, 0) != true {
		t.Error("flip with p=0")
	}
	if BinaryFlip(rng, true, 1) != false {
		t.Error("no flip with p=1")
	}

	// p=0.5 flips roughly half the time.
	flips := 0
	state := false
	for i := 0; i < 10000; i++ {
		next := BinaryFlip(rng, state, 0.5)
		if next != state {
			flips++
		}
		state = next
	}
	if flips < 4500 || flips > 5500 {
		t.Errorf("flips = %d over 10000 trials at p=0.5, want ~5000", flips)
	}
}

func TestMultistateRotate(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		numStates int
		want      int
	}{
		{"advance", 1, 4, 2},
		{"wrap", 4, 4, 1},
		{"two states", 2, 2, 1},
		{"degenerate single state", 1, 1, 1},
		{"degenerate zero states", 3, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MultistateRotate(tt.current, tt.numStates); got != tt.want {
				t.Errorf("MultistateRotate(%d, %d) = %d, want %d", tt.current, tt.numStates, got, tt.want)
			}
		})
	}
}

func TestNextFaultInterval(t *testing.T) {
	rng := newRand(5)
	mean := 2 * time.Minute

	var sum time.Duration
	n := 20000
	for i := 0; i < n; i++ {
		d := NextFaultInterval(rng, mean)
		if d < 0 {
			t.Fatalf("negative interval %v", d)
		}
		sum += d
	}
	avg := sum / time.Duration(n)
	if avg < mean*8/10 || avg > mean*12/10 {
		t.Errorf("mean interval = %v, want near %v", avg, mean)
	}
}

func TestRefreshBounded(t *testing.T) {
	rng := newRand(9)
	for i := 0; i < 1000; i++ {
		v := RefreshBounded(rng, 350, 450)
		if v < 350 || v >= 450 {
			t.Fatalf("refresh = %v, want in [350, 450)", v)
		}
	}
}

func TestOccupancyShift(t *testing.T) {
	if got := OccupancyShift(true, 0.1); got != 0.1 {
		t.Errorf("occupied shift = %v, want 0.1", got)
	}
	if got := OccupancyShift(false, 0.1); got != -0.1 {
		t.Errorf("vacated shift = %v, want -0.1", got)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(150, 0, 100); got != 100 {
		t.Errorf("Clamp(150) = %v", got)
	}
	if got := Clamp(-5, 0, 100); got != 0 {
		t.Errorf("Clamp(-5) = %v", got)
	}
	if got := Clamp(math.Pi, 0, 100); got != math.Pi {
		t.Errorf("Clamp(pi) = %v", got)
	}
}
