// Package controller implements a windowed feedback controller that
// time-multiplexes between two configurations of a model so that a measured
// performance signal tracks a constraint while a cost (or value) function of
// the interpolated measures is minimized (or maximized).
//
// Each window the host calls ComputeSchedule with the measures it observed.
// The controller estimates the base workload with a scalar Kalman filter,
// turns the constraint error into a target normalized rate with a pole/zero
// control law, and searches every feasible configuration pair for the best
// time division that achieves that rate.
package controller
