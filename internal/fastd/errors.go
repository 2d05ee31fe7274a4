package fastd

import (
	"errors"
	"net/http"

	"github.com/GoSim-25-26J-441/fast-controller/pkg/controller"
	"google.golang.org/grpc/codes"
)

var (
	ErrSessionNotFound   = errors.New("controller session not found")
	ErrSessionExists     = errors.New("controller session already exists")
	ErrInvalidSessionID  = errors.New("invalid controller session id")
	ErrInvalidController = errors.New("invalid controller definition")
	ErrInvalidRequest    = errors.New("invalid request")
)

func isInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidSessionID) ||
		errors.Is(err, ErrInvalidController) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, controller.ErrInvalidModel) ||
		errors.Is(err, controller.ErrInvalidParameter) ||
		errors.Is(err, controller.ErrMeasureCountMismatch) ||
		errors.Is(err, controller.ErrInvalidMeasurement)
}

// httpStatus maps a store or controller error to an HTTP status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionExists):
		return http.StatusConflict
	case isInvalidArgument(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// grpcCode maps a store or controller error to a gRPC status code.
func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return codes.NotFound
	case errors.Is(err, ErrSessionExists):
		return codes.AlreadyExists
	case isInvalidArgument(err):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}
