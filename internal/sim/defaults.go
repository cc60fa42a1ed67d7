package sim

import "github.com/nerrad567/vav-sim-core/internal/point"

// Well-known point names recognised by the coupled VAV model. Points with
// these names are driven together; a missing name simply disables that
// coupling.
const (
	PointDamper               = "Damper"
	PointDamperHotDeck        = "DamperHotDeck"
	PointDamperColdDeck       = "DamperColdDeck"
	PointReheat               = "Reheat"
	PointHeatSetpoint         = "HeatSetpoint"
	PointCoolSetpoint         = "CoolSetpoint"
	PointOccupiedCommand      = "OccupiedCommand"
	PointInletTemperature     = "InletTemperature"
	PointInletTempHotDeck     = "InletTemperatureHotDeck"
	PointInletTempColdDeck    = "InletTemperatureColdDeck"
	PointDischargeTemperature = "DischargeTemperature"
	PointSpaceTemperature     = "SpaceTemperature"
	PointSpaceSetpoint        = "SpaceSetpoint"
	PointAirflow              = "Airflow"
	PointAirflowHotDeck       = "AirflowHotDeck"
	PointAirflowColdDeck      = "AirflowColdDeck"
	PointHumidity             = "Humidity"
	PointMaximumAirflow       = "MaximumAirflow"
	PointOutdoorTemperature   = "OutdoorTemperature"
	PointOperationStatus      = "OperationStatus"
)

// Operation status labels looked up on the status point.
const (
	statusCooling     = "Cooling"
	statusHeating     = "Heating"
	statusVentilating = "Ventilating"
	statusFault       = "Fault"
)

// DefaultDeviceSpecs returns the built-in 20-point VAV device used when no
// CSV is configured: six analog outputs, one binary output, twelve analog
// inputs and one multistate status point.
func DefaultDeviceSpecs() []point.Spec {
	return []point.Spec{
		{Category: point.CategoryAnalogOutput, Instance: 1, Name: PointDamper,
			Description: "Primary damper position", Units: point.UnitPercent},
		{Category: point.CategoryAnalogOutput, Instance: 2, Name: PointDamperHotDeck,
			Description: "Hot deck damper position", Units: point.UnitPercent},
		{Category: point.CategoryAnalogOutput, Instance: 3, Name: PointDamperColdDeck,
			Description: "Cold deck damper position", Units: point.UnitPercent},
		{Category: point.CategoryAnalogOutput, Instance: 4, Name: PointReheat,
			Description: "Reheat valve position", Units: point.UnitPercent},
		{Category: point.CategoryAnalogOutput, Instance: 5, Name: PointHeatSetpoint,
			Description: "Heating setpoint", InitialValue: 21, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogOutput, Instance: 6, Name: PointCoolSetpoint,
			Description: "Cooling setpoint", InitialValue: 24, Units: point.UnitDegreesCelsius},

		{Category: point.CategoryBinaryOutput, Instance: 1, Name: PointOccupiedCommand,
			Description: "Occupancy command", InitialValue: 1},

		{Category: point.CategoryAnalogInput, Instance: 1, Name: PointInletTemperature,
			Description: "Inlet air temperature", InitialValue: 12, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 2, Name: PointInletTempHotDeck,
			Description: "Hot deck inlet temperature", InitialValue: 30, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 3, Name: PointInletTempColdDeck,
			Description: "Cold deck inlet temperature", InitialValue: 12, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 4, Name: PointDischargeTemperature,
			Description: "Discharge air temperature", InitialValue: 12, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 5, Name: PointSpaceTemperature,
			Description: "Zone air temperature", InitialValue: 22, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 6, Name: PointSpaceSetpoint,
			Description: "Zone setpoint", InitialValue: 22, Units: point.UnitDegreesCelsius},
		{Category: point.CategoryAnalogInput, Instance: 7, Name: PointAirflow,
			Description: "Supply airflow", Units: point.UnitLitersPerSecond},
		{Category: point.CategoryAnalogInput, Instance: 8, Name: PointAirflowHotDeck,
			Description: "Hot deck airflow", Units: point.UnitLitersPerSecond},
		{Category: point.CategoryAnalogInput, Instance: 9, Name: PointAirflowColdDeck,
			Description: "Cold deck airflow", Units: point.UnitLitersPerSecond},
		{Category: point.CategoryAnalogInput, Instance: 10, Name: PointHumidity,
			Description: "Zone relative humidity", InitialValue: 40, Units: point.UnitPercentRelativeHumidity},
		{Category: point.CategoryAnalogInput, Instance: 11, Name: PointMaximumAirflow,
			Description: "Measured maximum airflow capacity", InitialValue: 400, Units: point.UnitLitersPerSecond},
		{Category: point.CategoryAnalogInput, Instance: 12, Name: PointOutdoorTemperature,
			Description: "Outdoor air temperature", InitialValue: 15, Units: point.UnitDegreesCelsius},

		{Category: point.CategoryMultistateValue, Instance: 1, Name: PointOperationStatus,
			Description: "Unit operating mode", InitialValue: 1,
			StateLabels: []string{statusCooling, statusHeating, statusVentilating, statusFault}},
	}
}
