package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/nerrad567/vav-sim-core/internal/behavior"
	"github.com/nerrad567/vav-sim-core/internal/infrastructure/config"
	"github.com/nerrad567/vav-sim-core/internal/point"
)

// UpdateFunc is invoked after the engine changes a point's value.
// Callbacks run on the tick goroutine and must not block.
type UpdateFunc func(snap point.Snapshot)

// Engine is the simulation scheduler: one tick loop advancing every point.
//
// The engine itself is single-goroutine; all shared state lives inside the
// points, which carry their own locks, so the protocol surfaces can read and
// command points concurrently with the tick loop.
type Engine struct {
	cfg      config.SimulationConfig
	registry *point.Registry
	rng      behavior.Rand
	logger   point.Logger
	onUpdate UpdateFunc

	step             time.Duration
	outdoorCycle     time.Duration
	rotationInterval time.Duration
	faultMean        time.Duration
	faultHold        time.Duration
	refreshInterval  time.Duration

	// Simulated time since start, advanced by step each tick. All timers
	// below are deadlines on this clock, never blocking sleeps.
	elapsed time.Duration

	nextFault    time.Duration
	faultUntil   time.Duration
	faultActive  bool
	statusBefore int

	nextRefresh  time.Duration
	nextRotation time.Duration

	lastOccupied  bool
	haveOccupancy bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l point.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithRand injects the randomness source. Tests substitute fixed sequences.
func WithRand(rng behavior.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithOnUpdate registers a callback fired after every applied point update.
func WithOnUpdate(fn UpdateFunc) Option {
	return func(e *Engine) { e.onUpdate = fn }
}

// New creates an engine over the given registry. The configuration supplies
// the tick period and every behaviour magnitude; zero-value timers are armed
// from it immediately.
func New(cfg config.SimulationConfig, registry *point.Registry, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // simulation noise, not crypto
		logger:   point.NopLogger(),

		step:             time.Duration(cfg.StepSeconds * float64(time.Second)),
		outdoorCycle:     time.Duration(cfg.Outdoor.CycleSeconds) * time.Second,
		rotationInterval: time.Duration(cfg.Rotation.IntervalSeconds) * time.Second,
		faultMean:        time.Duration(cfg.Fault.MeanSeconds) * time.Second,
		faultHold:        time.Duration(cfg.Fault.HoldSeconds) * time.Second,
		refreshInterval:  time.Duration(cfg.Refresh.IntervalSeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.nextFault = behavior.NextFaultInterval(e.rng, e.faultMean)
	e.nextRefresh = e.refreshInterval
	e.nextRotation = e.rotationInterval

	// Baseline for occupancy transition detection.
	if p := e.get(PointOccupiedCommand); p != nil {
		e.lastOccupied = p.PresentValue().Binary
		e.haveOccupancy = true
	}

	return e
}

// Run executes the tick loop until the context is cancelled. Shutdown is
// clean: the loop finishes the in-flight tick and returns without touching
// further point state.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("simulation started",
		"step", e.step,
		"priority_aware", e.cfg.PriorityAware,
		"points", e.registry.Count())

	ticker := time.NewTicker(e.step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("simulation stopped", "elapsed", e.elapsed)
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Elapsed returns the simulated time advanced so far.
func (e *Engine) Elapsed() time.Duration { return e.elapsed }

// Tick advances the simulation by one step. Exported so tests can drive the
// clock deterministically; Run calls it on the ticker.
func (e *Engine) Tick() {
	e.elapsed += e.step

	handled := make(map[string]bool)
	e.tickOccupancy(handled)
	e.tickThermal(handled)
	e.tickOutdoor(handled)
	e.tickHumidity(handled)
	e.tickRefresh(handled)
	e.tickFault(handled)
	e.tickGeneric(handled)
}

// apply writes a simulated value under the configured priority policy.
// Returns true if the point's value actually changed hands to the engine.
func (e *Engine) apply(p *point.Point, v point.Value) bool {
	var gated bool
	var err error
	if e.cfg.PriorityAware {
		gated, err = p.SetSimulated(v)
	} else {
		err = p.ForceSimulated(v)
	}
	if err != nil {
		// Per-point failure isolation: log and move on.
		e.logger.Warn("point update skipped", "point", p.Name(), "error", err)
		return false
	}
	if gated {
		return false
	}
	if e.onUpdate != nil {
		e.onUpdate(p.Snapshot())
	}
	return true
}

// get fetches a point, or nil when the name is not in the registry.
func (e *Engine) get(name string) *point.Point {
	p, err := e.registry.Get(name)
	if err != nil {
		return nil
	}
	return p
}

// present reads a point's present value as a float, with ok=false when the
// point does not exist.
func (e *Engine) present(name string) (float64, bool) {
	p := e.get(name)
	if p == nil {
		return 0, false
	}
	return p.PresentValue().Float(), true
}

// tickOccupancy applies a one-time setpoint shift when the occupancy command
// transitions. The command point itself keeps its generic binary behaviour.
func (e *Engine) tickOccupancy(handled map[string]bool) {
	cmd := e.get(PointOccupiedCommand)
	if cmd == nil {
		return
	}

	occupied := cmd.PresentValue().Binary
	if !e.haveOccupancy {
		e.lastOccupied = occupied
		e.haveOccupancy = true
		return
	}
	if occupied == e.lastOccupied {
		return
	}
	e.lastOccupied = occupied

	sp := e.get(PointSpaceSetpoint)
	if sp == nil {
		return
	}
	handled[PointSpaceSetpoint] = true
	shift := behavior.OccupancyShift(occupied, e.cfg.Occupancy.SetpointShift)
	e.apply(sp, point.AnalogValue(sp.PresentValue().Float()+shift))
	e.logger.Debug("occupancy transition", "occupied", occupied, "setpoint_shift", shift)
}

// tickThermal evaluates the VAV control loop over the well-known point names
// and distributes its outputs. The model needs at least the space
// temperature and damper to run; every other coupling is optional.
func (e *Engine) tickThermal(handled map[string]bool) {
	space := e.get(PointSpaceTemperature)
	damper := e.get(PointDamper)
	if space == nil || damper == nil {
		return
	}

	state := behavior.LoopState{
		SpaceTemp: space.PresentValue().Float(),
		Damper:    damper.PresentValue().Float(),
	}
	if v, ok := e.present(PointSpaceSetpoint); ok {
		state.Setpoint = v
	} else {
		state.Setpoint = state.SpaceTemp
	}
	if v, ok := e.present(PointReheat); ok {
		state.Reheat = v
	}
	if v, ok := e.present(PointInletTemperature); ok {
		state.InletTemp = v
	}

	out := behavior.Step(loopParams(e.cfg.Loop), state)

	// The model owns these names for the rest of the tick, whether or not
	// each individual write lands.
	analogOutputs := []struct {
		name  string
		value float64
	}{
		{PointDamper, out.Damper},
		{PointReheat, out.Reheat},
		{PointDamperHotDeck, out.DamperHot},
		{PointDamperColdDeck, out.DamperCold},
		{PointAirflow, out.Airflow},
		{PointAirflowHotDeck, out.AirflowHot},
		{PointAirflowColdDeck, out.AirflowCold},
		{PointDischargeTemperature, out.Discharge},
		{PointInletTemperature, out.InletTemp},
		{PointSpaceTemperature, out.SpaceTemp},
	}
	for _, target := range analogOutputs {
		handled[target.name] = true
		if p := e.get(target.name); p != nil {
			e.apply(p, point.AnalogValue(target.value))
		}
	}

	// Held constants of the coupled model: deck inlet temperatures and the
	// fixed heat/cool setpoints drift nowhere.
	for _, name := range []string{
		PointInletTempHotDeck, PointInletTempColdDeck,
		PointHeatSetpoint, PointCoolSetpoint, PointSpaceSetpoint,
	} {
		handled[name] = true
	}

	e.tickStatus(out, handled)
}

// tickStatus derives the operating mode from the loop outputs. Fault
// injection owns the status point while a fault window is open.
func (e *Engine) tickStatus(out behavior.LoopOutputs, handled map[string]bool) {
	status := e.get(PointOperationStatus)
	if status == nil {
		return
	}
	handled[PointOperationStatus] = true
	if e.faultActive {
		return
	}

	mode := statusVentilating
	switch {
	case out.Reheat > 0:
		mode = statusHeating
	case out.Damper > e.cfg.Loop.NeutralDamper:
		mode = statusCooling
	}
	idx := labelIndex(status.StateLabels(), mode)
	if idx == 0 {
		return
	}
	e.apply(status, point.StateValue(idx))
}

// tickOutdoor advances the outdoor temperature sine cycle.
func (e *Engine) tickOutdoor(handled map[string]bool) {
	p := e.get(PointOutdoorTemperature)
	if p == nil {
		return
	}
	handled[PointOutdoorTemperature] = true
	v := behavior.TemperatureCycle(e.rng, e.elapsed,
		e.cfg.Outdoor.Base, e.cfg.Outdoor.Amplitude, e.cfg.Outdoor.Noise, e.outdoorCycle)
	e.apply(p, point.AnalogValue(v))
}

// tickHumidity advances the bounded humidity walk on the named zone point.
func (e *Engine) tickHumidity(handled map[string]bool) {
	p := e.get(PointHumidity)
	if p == nil {
		return
	}
	handled[PointHumidity] = true
	v := behavior.HumidityWalk(e.rng, p.PresentValue().Float(),
		e.cfg.Humidity.Step, e.cfg.Humidity.Lower, e.cfg.Humidity.Upper)
	e.apply(p, point.AnalogValue(v))
}

// tickRefresh redraws slowly-changing environmental maxima on its own
// wall-clock interval.
func (e *Engine) tickRefresh(handled map[string]bool) {
	p := e.get(PointMaximumAirflow)
	if p == nil {
		return
	}
	handled[PointMaximumAirflow] = true
	if e.elapsed < e.nextRefresh {
		return
	}
	e.nextRefresh += e.refreshInterval
	v := behavior.RefreshBounded(e.rng, e.cfg.Refresh.Lower, e.cfg.Refresh.Upper)
	e.apply(p, point.AnalogValue(v))
	e.logger.Debug("refreshed environmental maximum", "point", p.Name(), "value", v)
}

// tickFault runs the two-phase fault pulse on the status point: set the
// Fault state, hold, restore, redraw the next exponential interval. Both
// phases are deadline checks, never sleeps.
func (e *Engine) tickFault(handled map[string]bool) {
	status := e.get(PointOperationStatus)
	if status == nil {
		return
	}
	handled[PointOperationStatus] = true

	if e.faultActive {
		if e.elapsed < e.faultUntil {
			return
		}
		e.faultActive = false
		e.nextFault = e.elapsed + behavior.NextFaultInterval(e.rng, e.faultMean)
		if e.statusBefore > 0 {
			e.apply(status, point.StateValue(e.statusBefore))
		}
		e.logger.Debug("fault cleared", "next_fault", e.nextFault)
		return
	}

	if e.elapsed < e.nextFault {
		return
	}
	idx := labelIndex(status.StateLabels(), statusFault)
	if idx == 0 {
		// No Fault label on this point set; rearm and move on.
		e.nextFault = e.elapsed + behavior.NextFaultInterval(e.rng, e.faultMean)
		return
	}
	e.statusBefore = status.PresentValue().State
	e.faultActive = true
	e.faultUntil = e.elapsed + e.faultHold
	e.apply(status, point.StateValue(idx))
	e.logger.Debug("fault injected", "hold", e.faultHold)
}

// tickGeneric drives every point not claimed by the coupled model, selecting
// a behaviour from the point's kind and engineering units.
func (e *Engine) tickGeneric(handled map[string]bool) {
	rotate := false
	if e.elapsed >= e.nextRotation {
		e.nextRotation += e.rotationInterval
		rotate = true
	}

	for _, p := range e.registry.All() {
		if handled[p.Name()] {
			continue
		}
		switch p.Kind() {
		case point.KindBinary:
			current := p.PresentValue().Binary
			next := behavior.BinaryFlip(e.rng, current, e.cfg.Binary.FlipProbability)
			if next != current {
				e.apply(p, point.BinaryValue(next))
			}
		case point.KindMultistate:
			if !rotate {
				continue
			}
			labels := p.StateLabels()
			next := behavior.MultistateRotate(p.PresentValue().State, len(labels))
			e.apply(p, point.StateValue(next))
		case point.KindAnalog:
			e.tickGenericAnalog(p)
		}
	}
}

// tickGenericAnalog picks the analog behaviour from the unit tag inferred at
// ingestion. Unitless analog points are left alone.
func (e *Engine) tickGenericAnalog(p *point.Point) {
	current := p.PresentValue().Float()
	base := p.Spec().InitialValue

	switch p.Units() {
	case point.UnitDegreesCelsius, point.UnitDegreesFahrenheit:
		v := behavior.TemperatureCycle(e.rng, e.elapsed,
			base, e.cfg.Outdoor.Amplitude, e.cfg.Outdoor.Noise, e.outdoorCycle)
		e.apply(p, point.AnalogValue(v))
	case point.UnitLitersPerSecond, point.UnitCubicFeetPerMinute:
		v := behavior.FlowCycle(e.rng, e.elapsed,
			base, base/4, base/20, e.outdoorCycle)
		e.apply(p, point.AnalogValue(v))
	case point.UnitPercentRelativeHumidity:
		v := behavior.HumidityWalk(e.rng, current,
			e.cfg.Humidity.Step, e.cfg.Humidity.Lower, e.cfg.Humidity.Upper)
		e.apply(p, point.AnalogValue(v))
	case point.UnitPascals:
		v := behavior.PressureWalk(e.rng, current, e.cfg.Pressure.Step)
		e.apply(p, point.AnalogValue(v))
	case point.UnitPercent:
		v := behavior.HumidityWalk(e.rng, current, e.cfg.Humidity.Step, 0, 100)
		e.apply(p, point.AnalogValue(v))
	}
}

// labelIndex returns the 1-based index of a label, or 0 when absent.
func labelIndex(labels []string, want string) int {
	for i, l := range labels {
		if l == want {
			return i + 1
		}
	}
	return 0
}

// loopParams maps the configuration section onto the control loop constants.
func loopParams(cfg config.LoopConfig) behavior.LoopParams {
	return behavior.LoopParams{
		Band:              cfg.Band,
		Gain:              cfg.Gain,
		RoomGain:          cfg.RoomGain,
		CoolSupply:        cfg.CoolSupply,
		HeatSupply:        cfg.HeatSupply,
		NeutralDamper:     cfg.NeutralDamper,
		RelaxFactor:       cfg.RelaxFactor,
		AirflowPerPercent: cfg.AirflowPerPercent,
		ReferenceFlow:     cfg.ReferenceFlow,
		InletLag:          cfg.InletLag,
	}
}
