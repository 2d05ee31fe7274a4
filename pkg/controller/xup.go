package controller

import (
	"fmt"
	"math"
)

// DefaultConfidenceEpsilon is the settling fraction used by ConfidenceZone
// when deciding whether oscillation detection is active.
const DefaultConfidenceEpsilon = 0.05

const (
	// second pole
	xupP2 = 0.0
	// zero
	xupZ1 = 0.0
	// gain
	xupMu = 1.0
)

// XupSnapshot is a snapshot of the rate controller history.
type XupSnapshot struct {
	U   float64 `json:"u"`
	UO  float64 `json:"uo"`
	UOO float64 `json:"uoo"`
	E   float64 `json:"e"`
	EO  float64 `json:"eo"`
	P1  float64 `json:"p1"`
}

// XupState computes the normalized rate (xup) to target in the next window
// from the current and prior rates and errors.
type XupState struct {
	u   float64
	uo  float64
	uoo float64
	e   float64
	eo  float64
	p1  float64
}

// NewXupState seeds the rate history with xupStart. The dominant pole starts at 0.
func NewXupState(xupStart float64) *XupState {
	return &XupState{
		u:   xupStart,
		uo:  xupStart,
		uoo: xupStart,
	}
}

// Pole returns the dominant pole.
func (xs *XupState) Pole() float64 {
	return xs.p1
}

// SetPole sets the dominant pole, which must be in [0, 1).
func (xs *XupState) SetPole(p1 float64) error {
	if !(p1 >= 0 && p1 < 1) {
		return fmt.Errorf("%w: pole must be in [0, 1), got %g", ErrInvalidParameter, p1)
	}
	xs.p1 = p1
	return nil
}

// CalculateXup computes the rate to achieve in the next window and shifts the
// history. w is the base workload estimate and xupMax the largest achievable
// rate; the result is clamped to [1, xupMax]. A NaN result (an infinite
// workload estimate multiplied by a zero error) falls back to 1.
func (xs *XupState) CalculateXup(constraintTarget, constraintAchieved, w, xupMax float64) float64 {
	p1, p2, z1, mu := xs.p1, xupP2, xupZ1, xupMu
	A := -(-(p1 * z1) - (p2 * z1) + (mu * p1 * p2) - (mu * p2) + p2 - (mu * p1) + p1 + mu)
	B := -(-(mu * p1 * p2 * z1) + (p1 * p2 * z1) + (mu * p2 * z1) + (mu * p1 * z1) - (mu * z1) - (p1 * p2))
	C := (((mu - (mu * p1)) * p2) + (mu * p1) - mu) * w
	D := ((((mu * p1) - mu) * p2) - (mu * p1) + mu) * w * z1
	F := 1.0 / (z1 - 1.0)

	xs.e = constraintTarget - constraintAchieved
	// uses the history from before this call
	u := F * ((A * xs.uo) + (B * xs.uoo) + (C * xs.e) + (D * xs.eo))
	// below 1 has no effect; above the maximum is not achievable
	if math.IsNaN(u) {
		u = 1.0
	}
	u = math.Min(math.Max(1.0, u), xupMax)

	xs.u = u
	xs.uoo = xs.uo
	xs.uo = u
	xs.eo = xs.e
	return u
}

// LastXup returns the rate computed by the last CalculateXup call, or the
// starting rate before the first call.
func (xs *XupState) LastXup() float64 {
	return xs.u
}

// LastError returns the constraint error from the last CalculateXup call.
func (xs *XupState) LastError() float64 {
	return xs.e
}

// ConfidenceZone returns the number of windows the closed loop needs to settle
// within epsilon of the constraint: log(epsilon)/log(p1), or 0 when p1 is 0.
func (xs *XupState) ConfidenceZone(epsilon float64) (float64, error) {
	if !(epsilon > 0 && epsilon < 1) {
		return 0, fmt.Errorf("%w: epsilon must be in (0, 1), got %g", ErrInvalidParameter, epsilon)
	}
	if xs.p1 > 0 {
		return math.Log(epsilon) / math.Log(xs.p1), nil
	}
	return 0, nil
}

// State returns a snapshot of the history and pole.
func (xs *XupState) State() XupSnapshot {
	return XupSnapshot{
		U:   xs.u,
		UO:  xs.uo,
		UOO: xs.uoo,
		E:   xs.e,
		EO:  xs.eo,
		P1:  xs.p1,
	}
}
