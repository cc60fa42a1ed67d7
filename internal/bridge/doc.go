// Package bridge exposes the point set over MQTT.
//
// Outbound, every applied point update is published retained on
// vavsim/point/<name>/state, so a late subscriber immediately sees the
// current value of every point. The full point inventory goes out once at
// startup on vavsim/system/points.
//
// Inbound, the bridge subscribes to vavsim/point/+/write and maps each
// command onto a priority-slot write: {"priority": 8, "value": 55} commands
// slot 8, a null value relinquishes it. Every command is acknowledged on
// vavsim/point/<name>/write/ack with the command ID (client-supplied or
// generated) and a structured error on rejection.
//
// The bridge contains no simulation logic: it is a thin adapter over
// Point.WriteSlot and Point.Snapshot.
package bridge
