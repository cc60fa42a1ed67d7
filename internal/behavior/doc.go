// Package behavior holds the per-tick update functions that give simulated
// points lifelike movement, plus the VAV thermal control loop. Everything
// here is pure: functions take the current value, elapsed time and an
// injected random source, and return the next value. Scheduling, point
// lookup and priority arbitration are the sim engine's job.
package behavior
