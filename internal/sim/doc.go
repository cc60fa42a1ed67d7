// Package sim drives the simulation: a single tick loop that advances every
// point's value through the behavior library and the VAV thermal control
// loop.
//
// When the point set contains the well-known VAV names (Damper, Reheat,
// SpaceTemperature, ...), those points are driven as one coupled model.
// Everything else falls back to generic per-category behaviours selected by
// the point's engineering units.
//
// Writes to commandable points land at the lowest priority slot and are
// skipped while an external command occupies a higher slot; the legacy
// always-drift policy is available via configuration. A failing point update
// is logged and skipped, never aborting the tick for other points.
package sim
