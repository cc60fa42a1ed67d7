// Package api implements the HTTP REST API and WebSocket server for the
// VAV simulator.
//
// This package provides:
//   - REST endpoints for the point inventory and per-point priority arrays
//   - Priority writes and relinquishes, mirroring the MQTT write channel
//   - WebSocket hub streaming applied point updates to subscribers
//   - JWT bearer authentication (disabled when no secret is configured)
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for deployments off the lab bench
//
// # Architecture
//
// The API server sits between supervisory clients (bench tooling, dashboards)
// and the point registry. Commands go straight to the registry's priority
// arrays; applied changes are fanned back out through the update hook and the
// WebSocket hub, so REST writes, MQTT writes, and engine ticks all surface the
// same way.
//
// # Graceful Degradation
//
// The server operates without MQTT and without authentication configured:
// on a closed bench the REST and WebSocket surfaces carry everything.
package api
