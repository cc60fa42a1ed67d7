package sim

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/nerrad567/vav-sim-core/internal/infrastructure/config"
	"github.com/nerrad567/vav-sim-core/internal/point"
)

// fixedRand returns constant draws so behaviour arithmetic is exact.
// Float64=0.5 makes every uniform noise term zero.
type fixedRand struct {
	f float64
	e float64
}

func (r fixedRand) Float64() float64    { return r.f }
func (r fixedRand) ExpFloat64() float64 { return r.e }

// quietRand pushes the first fault far beyond any test horizon.
var quietRand = fixedRand{f: 0.5, e: 1e9}

func testSimConfig() config.SimulationConfig {
	return config.SimulationConfig{
		StepSeconds:   0.5,
		PriorityAware: true,
		Outdoor:       config.OutdoorConfig{Base: 21, Amplitude: 6, Noise: 0, CycleSeconds: 1200},
		Humidity:      config.HumidityConfig{Step: 0.2, Lower: 20, Upper: 80},
		Pressure:      config.PressureConfig{Step: 0.5},
		Binary:        config.BinaryConfig{FlipProbability: 0.01},
		Rotation:      config.RotationConfig{IntervalSeconds: 30},
		Fault:         config.FaultConfig{MeanSeconds: 120, HoldSeconds: 5},
		Refresh:       config.RefreshConfig{IntervalSeconds: 3600, Lower: 350, Upper: 450},
		Occupancy:     config.OccupancyConfig{SetpointShift: 0.1},
		Loop: config.LoopConfig{
			Band: 0.5, Gain: 4.0, RoomGain: 0.04,
			CoolSupply: 12, HeatSupply: 30,
			NeutralDamper: 30, RelaxFactor: 0.1,
			AirflowPerPercent: 1.2, ReferenceFlow: 120, InletLag: 0.05,
		},
	}
}

func defaultRegistry(t *testing.T) *point.Registry {
	t.Helper()
	reg, err := point.BuildRegistry(DefaultDeviceSpecs(), point.WithoutPlaceholders())
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}
	return reg
}

func mustGet(t *testing.T, reg *point.Registry, name string) *point.Point {
	t.Helper()
	p, err := reg.Get(name)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", name, err)
	}
	return p
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}

func TestTickSpaceAboveSetpoint(t *testing.T) {
	reg := defaultRegistry(t)
	engine := New(testSimConfig(), reg, WithRand(quietRand))

	// Space 2 degrees above the 22 degree setpoint: the loop must open the
	// damper by 2*gain and zero the reheat.
	space := mustGet(t, reg, PointSpaceTemperature)
	if _, err := space.SetSimulated(point.AnalogValue(24)); err != nil {
		t.Fatalf("seeding space temperature: %v", err)
	}

	engine.Tick()

	if got := mustGet(t, reg, PointDamper).PresentValue().Float(); !approx(got, 8) {
		t.Errorf("Damper = %v, want 8", got)
	}
	if got := mustGet(t, reg, PointReheat).PresentValue().Float(); !approx(got, 0) {
		t.Errorf("Reheat = %v, want 0", got)
	}
	if got := mustGet(t, reg, PointAirflow).PresentValue().Float(); !approx(got, 9.6) {
		t.Errorf("Airflow = %v, want 9.6", got)
	}
	if got := mustGet(t, reg, PointDamperColdDeck).PresentValue().Float(); !approx(got, 8) {
		t.Errorf("DamperColdDeck = %v, want 8", got)
	}
	// Full cooling: discharge sits at the cool supply temperature.
	if got := mustGet(t, reg, PointDischargeTemperature).PresentValue().Float(); !approx(got, 12) {
		t.Errorf("DischargeTemperature = %v, want 12", got)
	}
}

func TestTickSpaceBelowSetpoint(t *testing.T) {
	reg := defaultRegistry(t)
	engine := New(testSimConfig(), reg, WithRand(quietRand))

	space := mustGet(t, reg, PointSpaceTemperature)
	if _, err := space.SetSimulated(point.AnalogValue(20)); err != nil {
		t.Fatalf("seeding space temperature: %v", err)
	}

	engine.Tick()

	// err = +2: damper throttles (clamped at 0 from its 0 start), reheat
	// rises to err*gain*2 = 16.
	if got := mustGet(t, reg, PointDamper).PresentValue().Float(); !approx(got, 0) {
		t.Errorf("Damper = %v, want 0", got)
	}
	if got := mustGet(t, reg, PointReheat).PresentValue().Float(); !approx(got, 16) {
		t.Errorf("Reheat = %v, want 16", got)
	}
	if got := mustGet(t, reg, PointAirflowHotDeck).PresentValue().Float(); !approx(got, 16) {
		t.Errorf("AirflowHotDeck = %v, want 16", got)
	}
}

func TestExternalCommandGatesSimulation(t *testing.T) {
	reg := defaultRegistry(t)
	engine := New(testSimConfig(), reg, WithRand(quietRand))

	damper := mustGet(t, reg, PointDamper)
	v := point.AnalogValue(55)
	if err := damper.WriteSlot(8, &v); err != nil {
		t.Fatalf("WriteSlot() error = %v", err)
	}

	engine.Tick()

	// The commanded value wins and slot 16 stays empty.
	if got := damper.PresentValue().Float(); !approx(got, 55) {
		t.Errorf("Damper = %v, want commanded 55", got)
	}
	slots := damper.PrioritySnapshot()
	if slots[point.SimulationPriority-1] != nil {
		t.Error("simulation slot occupied despite higher-priority command")
	}
	if snap := damper.Snapshot(); snap.ActiveSlot != 8 {
		t.Errorf("ActiveSlot = %d, want 8", snap.ActiveSlot)
	}

	// Relinquishing hands the point back to the engine on the next tick.
	if err := damper.WriteSlot(8, nil); err != nil {
		t.Fatalf("relinquish error = %v", err)
	}
	engine.Tick()
	if slots := damper.PrioritySnapshot(); slots[point.SimulationPriority-1] == nil {
		t.Error("simulation slot empty after command was relinquished")
	}
}

func TestLegacyPolicyWritesThrough(t *testing.T) {
	cfg := testSimConfig()
	cfg.PriorityAware = false
	reg := defaultRegistry(t)
	engine := New(cfg, reg, WithRand(quietRand))

	damper := mustGet(t, reg, PointDamper)
	v := point.AnalogValue(55)
	if err := damper.WriteSlot(8, &v); err != nil {
		t.Fatalf("WriteSlot() error = %v", err)
	}

	engine.Tick()

	// Legacy drift ignores the gate: slot 16 is written even though the
	// command still owns the present value.
	if slots := damper.PrioritySnapshot(); slots[point.SimulationPriority-1] == nil {
		t.Error("simulation slot empty, want legacy write-through")
	}
	if got := damper.PresentValue().Float(); !approx(got, 55) {
		t.Errorf("Damper = %v, want 55 (slot 8 still wins)", got)
	}
}

func TestOccupancyTransitionShiftsSetpoint(t *testing.T) {
	reg := defaultRegistry(t)
	engine := New(testSimConfig(), reg, WithRand(quietRand))

	cmd := mustGet(t, reg, PointOccupiedCommand)
	v := point.BinaryValue(false)
	if err := cmd.WriteSlot(8, &v); err != nil {
		t.Fatalf("WriteSlot() error = %v", err)
	}

	engine.Tick()

	if got := mustGet(t, reg, PointSpaceSetpoint).PresentValue().Float(); !approx(got, 21.9) {
		t.Errorf("SpaceSetpoint = %v, want 21.9 after vacating", got)
	}

	// No further transition: the shift is one-time.
	engine.Tick()
	if got := mustGet(t, reg, PointSpaceSetpoint).PresentValue().Float(); !approx(got, 21.9) {
		t.Errorf("SpaceSetpoint = %v after second tick, want 21.9", got)
	}
}

func TestFaultPulse(t *testing.T) {
	reg := defaultRegistry(t)
	// ExpFloat64=0 arms the first fault immediately.
	engine := New(testSimConfig(), reg, WithRand(fixedRand{f: 0.5, e: 0}))

	status := mustGet(t, reg, PointOperationStatus)
	faultIdx := 4

	engine.Tick()
	if got := status.PresentValue().State; got != faultIdx {
		t.Fatalf("status = %d after first tick, want fault state %d", got, faultIdx)
	}

	// Hold is 5s at 0.5s ticks: nine more ticks stay faulted.
	for i := 0; i < 9; i++ {
		engine.Tick()
		if got := status.PresentValue().State; got != faultIdx {
			t.Fatalf("status = %d during hold (tick %d), want %d", got, i+2, faultIdx)
		}
	}

	// Tick 11 crosses the hold deadline and restores the prior state.
	engine.Tick()
	if got := status.PresentValue().State; got == faultIdx {
		t.Error("status still faulted after hold expired")
	}
}

func TestRefreshRedrawsMaximumAirflow(t *testing.T) {
	cfg := testSimConfig()
	cfg.Refresh.IntervalSeconds = 1
	cfg.Refresh.Lower = 350
	cfg.Refresh.Upper = 360
	reg := defaultRegistry(t)
	engine := New(cfg, reg, WithRand(quietRand))

	maxFlow := mustGet(t, reg, PointMaximumAirflow)

	engine.Tick() // 0.5s, before the interval
	if got := maxFlow.PresentValue().Float(); !approx(got, 400) {
		t.Errorf("MaximumAirflow = %v before interval, want initial 400", got)
	}

	engine.Tick() // 1.0s, redraw fires: midpoint of [350,360) at Float64=0.5
	if got := maxFlow.PresentValue().Float(); !approx(got, 355) {
		t.Errorf("MaximumAirflow = %v, want 355", got)
	}
}

func TestHumidityStaysBounded(t *testing.T) {
	reg := defaultRegistry(t)
	rng := rand.New(rand.NewSource(42))
	engine := New(testSimConfig(), reg, WithRand(rng))

	humidity := mustGet(t, reg, PointHumidity)
	for i := 0; i < 2000; i++ {
		engine.Tick()
		if v := humidity.PresentValue().Float(); v < 20 || v > 80 {
			t.Fatalf("Humidity = %v at tick %d, outside [20,80]", v, i+1)
		}
	}
}

func TestGenericBehaviors(t *testing.T) {
	specs := []point.Spec{
		{Category: point.CategoryAnalogInput, Instance: 1, Name: "RoomTemp",
			InitialValue: 19, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 2, Name: "DuctPressure",
			InitialValue: 100, Units: point.UnitPascals},
		{Category: point.CategoryBinaryInput, Instance: 1, Name: "FanStatus"},
		{Category: point.CategoryMultistateInput, Instance: 1, Name: "FanMode",
			InitialValue: 1, StateLabels: []string{"Off", "Low", "High"}},
	}
	reg, err := point.BuildRegistry(specs, point.WithoutPlaceholders())
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	cfg := testSimConfig()
	cfg.Rotation.IntervalSeconds = 1
	cfg.Binary.FlipProbability = 1 // flip every tick
	engine := New(cfg, reg, WithRand(quietRand))

	engine.Tick() // 0.5s
	engine.Tick() // 1.0s, rotation clock fires

	// Temperature cycle recentres on the point's own base value.
	roomTemp := mustGet(t, reg, "RoomTemp").PresentValue().Float()
	if roomTemp < 13 || roomTemp > 25 {
		t.Errorf("RoomTemp = %v, want within base 19 ± amplitude 6", roomTemp)
	}

	if got := mustGet(t, reg, "FanStatus").PresentValue().Binary; got != false {
		t.Errorf("FanStatus = %v after two forced flips, want false", got)
	}

	if got := mustGet(t, reg, "FanMode").PresentValue().State; got != 2 {
		t.Errorf("FanMode = %d after one rotation, want 2", got)
	}
}

func TestOnUpdateCallback(t *testing.T) {
	reg := defaultRegistry(t)
	var updates []string
	engine := New(testSimConfig(), reg, WithRand(quietRand),
		WithOnUpdate(func(snap point.Snapshot) {
			updates = append(updates, snap.Name)
		}))

	engine.Tick()

	if len(updates) == 0 {
		t.Fatal("no update callbacks fired")
	}
	seen := make(map[string]bool, len(updates))
	for _, name := range updates {
		seen[name] = true
	}
	for _, want := range []string{PointDamper, PointSpaceTemperature, PointOutdoorTemperature} {
		if !seen[want] {
			t.Errorf("no update callback for %s", want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testSimConfig()
	cfg.StepSeconds = 0.001
	reg := defaultRegistry(t)
	engine := New(cfg, reg, WithRand(quietRand))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	if engine.Elapsed() == 0 {
		t.Error("Elapsed() = 0, want advanced simulated time")
	}
}

func TestThermalDisabledWithoutNamedPoints(t *testing.T) {
	specs := []point.Spec{
		{Category: point.CategoryAnalogInput, Instance: 1, Name: "Zone1Temp",
			InitialValue: 21, Units: point.UnitDegreesCelsius},
	}
	reg, err := point.BuildRegistry(specs, point.WithoutPlaceholders())
	if err != nil {
		t.Fatalf("BuildRegistry() error = %v", err)
	}

	engine := New(testSimConfig(), reg, WithRand(quietRand))
	engine.Tick() // must not panic with the model disabled

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
}
