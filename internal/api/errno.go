package api

import (
	"errors"
	"net/http"

	"YieldSentinel/internal/collector"
	"YieldSentinel/internal/settings"
	"YieldSentinel/internal/strategy"
)

// Errno defines the error code logic.
type Errno struct {
	Code    int
	Status  int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Common errors
var (
	OK                  = Errno{Code: 0, Status: http.StatusOK, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Status: http.StatusInternalServerError, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Status: http.StatusBadRequest, Message: "Error occurred while binding the request"}
	ErrDatabase         = Errno{Code: 10004, Status: http.StatusInternalServerError, Message: "Database error"}
)

// Business errors (20000+)
var (
	ErrDecisionNotFound   = Errno{Code: 20101, Status: http.StatusNotFound, Message: "Decision not found"}
	ErrDecisionNotPending = Errno{Code: 20102, Status: http.StatusConflict, Message: "Decision is missing or already reviewed"}
	ErrInvalidStatus      = Errno{Code: 20103, Status: http.StatusBadRequest, Message: "Unknown decision status"}
	ErrInvalidAddress     = Errno{Code: 20201, Status: http.StatusBadRequest, Message: "Invalid wallet address"}
	ErrInvalidDecimal     = Errno{Code: 20202, Status: http.StatusBadRequest, Message: "Invalid decimal value"}
	ErrUnknownStrategy    = Errno{Code: 20301, Status: http.StatusNotFound, Message: "Unknown strategy"}
	ErrSchedulerRunning   = Errno{Code: 20401, Status: http.StatusConflict, Message: "Scheduler already running"}
	ErrSchedulerStopped   = Errno{Code: 20402, Status: http.StatusConflict, Message: "Scheduler not running"}
)

// Decode maps an error to its HTTP status, numeric code and message.
func Decode(err error) (int, int, string) {
	if err == nil {
		return OK.Status, OK.Code, OK.Message
	}

	var e Errno
	if errors.As(err, &e) {
		return e.Status, e.Code, e.Message
	}
	switch {
	case errors.Is(err, settings.ErrInvalidAddress), errors.Is(err, collector.ErrInvalidAddress):
		return ErrInvalidAddress.Status, ErrInvalidAddress.Code, err.Error()
	case errors.Is(err, settings.ErrInvalidDecimal):
		return ErrInvalidDecimal.Status, ErrInvalidDecimal.Code, err.Error()
	case errors.Is(err, strategy.ErrUnsupportedToken):
		return ErrUnknownStrategy.Status, ErrUnknownStrategy.Code, err.Error()
	default:
		return InternalServerError.Status, InternalServerError.Code, err.Error()
	}
}
