package controller

// Schedule is the decision for the next window: spend NLowerIterations in the
// lower configuration and the rest of the period in the upper one.
type Schedule struct {
	IDLower          int  `json:"id_lower"`
	IDUpper          int  `json:"id_upper"`
	NLowerIterations int  `json:"n_lower_iterations"`
	Oscillating      bool `json:"oscillating"`
}

// UpperIterations returns the number of iterations of a window of the given
// period spent in the upper configuration.
func (s Schedule) UpperIterations(period int) int {
	return period - s.NLowerIterations
}
