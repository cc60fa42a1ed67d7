package behavior

// LoopParams are the tuning constants of the VAV feedback law. All of them
// come from configuration; DefaultLoopParams documents the defaults.
type LoopParams struct {
	// Band is the deadband around the setpoint, in degrees.
	Band float64
	// Gain scales the damper response to the temperature error.
	Gain float64
	// RoomGain scales the room's thermal response to supply air.
	RoomGain float64
	// CoolSupply and HeatSupply are the fixed deck supply temperatures
	// blended into the discharge temperature by the reheat fraction.
	CoolSupply float64
	HeatSupply float64
	// NeutralDamper is the resting damper position inside the deadband;
	// RelaxFactor is the per-tick fraction of the gap closed toward it.
	NeutralDamper float64
	RelaxFactor   float64
	// AirflowPerPercent converts damper position to airflow (L/s per %).
	AirflowPerPercent float64
	// ReferenceFlow normalises airflow in the room response term (L/s).
	ReferenceFlow float64
	// InletLag is the first-order coefficient pulling inlet temperature
	// toward discharge temperature each tick.
	InletLag float64
}

// DefaultLoopParams returns the stock VAV tuning.
func DefaultLoopParams() LoopParams {
	return LoopParams{
		Band:              0.5,
		Gain:              4.0,
		RoomGain:          0.04,
		CoolSupply:        12.0,
		HeatSupply:        30.0,
		NeutralDamper:     30.0,
		RelaxFactor:       0.1,
		AirflowPerPercent: 1.2,
		ReferenceFlow:     120.0,
		InletLag:          0.05,
	}
}

// LoopState is the mutable state the loop reads and advances each tick.
type LoopState struct {
	Setpoint  float64
	SpaceTemp float64
	Damper    float64
	Reheat    float64
	InletTemp float64
}

// LoopOutputs carries everything one evaluation produced, including the
// derived deck points.
type LoopOutputs struct {
	Damper      float64
	Reheat      float64
	DamperHot   float64
	DamperCold  float64
	Airflow     float64
	AirflowHot  float64
	AirflowCold float64
	Discharge   float64
	InletTemp   float64
	SpaceTemp   float64
}

// Step evaluates one control cycle of the VAV feedback law.
//
// The error is setpoint − measured. A space warmer than the setpoint (error
// below −band) opens the damper for more cool supply air and zeroes reheat;
// a space colder than the setpoint (error above +band) throttles the damper
// and raises reheat; inside the deadband the damper relaxes toward its
// neutral position. Dependent points (deck dampers, airflows, discharge,
// inlet and space temperature) are derived from the primary outputs.
func Step(p LoopParams, s LoopState) LoopOutputs {
	err := s.Setpoint - s.SpaceTemp

	damper := s.Damper
	reheat := s.Reheat
	switch {
	case err < -p.Band:
		damper = damper + (-err)*p.Gain
		reheat = 0
	case err > p.Band:
		damper = damper - err*p.Gain
		reheat = Clamp(err*p.Gain*2, 0, 100)
	default:
		reheat = 0
		damper += (p.NeutralDamper - damper) * p.RelaxFactor
	}
	damper = Clamp(damper, 0, 100)

	out := LoopOutputs{
		Damper:      damper,
		Reheat:      reheat,
		DamperHot:   reheat,
		DamperCold:  damper,
		Airflow:     damper * p.AirflowPerPercent,
		AirflowHot:  reheat,
		AirflowCold: damper,
	}

	out.Discharge = p.CoolSupply*(1-reheat/100) + p.HeatSupply*(reheat/100)
	out.InletTemp = s.InletTemp + (out.Discharge-s.InletTemp)*p.InletLag
	out.SpaceTemp = s.SpaceTemp +
		(out.Discharge-s.SpaceTemp)*(out.Airflow/p.ReferenceFlow)*p.RoomGain

	return out
}
