package controller

const (
	// kalmanProcessNoise is the process noise covariance (q).
	kalmanProcessNoise = 0.00001
	// kalmanMeasurementNoise is the measurement noise covariance (r).
	kalmanMeasurementNoise = 0.01
)

// KalmanState is a snapshot of the workload estimator.
type KalmanState struct {
	XHatMinus float64 `json:"x_hat_minus"`
	XHat      float64 `json:"x_hat"`
	PMinus    float64 `json:"p_minus"`
	H         float64 `json:"h"`
	K         float64 `json:"k"`
	P         float64 `json:"p"`
}

// KalmanFilter is a scalar Kalman filter that tracks the base workload from
// the rate that was targeted and the constraint value that resulted.
type KalmanFilter struct {
	xHatMinus float64
	xHat      float64
	pMinus    float64
	h         float64
	k         float64
	p         float64
}

// NewKalmanFilter returns a filter in its initial state.
func NewKalmanFilter() *KalmanFilter {
	return &KalmanFilter{
		xHat: 0.2,
		p:    1.0,
	}
}

// EstimateBaseWorkload updates the filter with the rate targeted in the last
// window and the constraint value achieved in it, and returns the estimated
// base workload (1 / x̂).
func (kf *KalmanFilter) EstimateBaseWorkload(xupLast, workloadLast float64) float64 {
	// predict
	kf.xHatMinus = kf.xHat
	kf.pMinus = kf.p + kalmanProcessNoise
	kf.h = xupLast
	// correct
	kf.k = (kf.pMinus * kf.h) / ((kf.h * kf.pMinus * kf.h) + kalmanMeasurementNoise)
	kf.xHat = kf.xHatMinus + (kf.k * (workloadLast - (kf.h * kf.xHatMinus)))
	kf.p = (1.0 - (kf.k * kf.h)) * kf.pMinus
	return 1.0 / kf.xHat
}

// State returns a snapshot of the filter.
func (kf *KalmanFilter) State() KalmanState {
	return KalmanState{
		XHatMinus: kf.xHatMinus,
		XHat:      kf.xHat,
		PMinus:    kf.pMinus,
		H:         kf.h,
		K:         kf.k,
		P:         kf.p,
	}
}
