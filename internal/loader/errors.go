package loader

import (
	"errors"
	"fmt"

	"github.com/seenimoa/sovwatch/pkg/models"
)

// ErrNotAvailable matches every *UnavailableError via errors.Is.
var ErrNotAvailable = errors.New("rating series not available")

// Reason classifies why a series is unavailable.
type Reason string

const (
	// ReasonMissing: the dataset does not exist in the store (coverage gap).
	ReasonMissing Reason = "missing"
	// ReasonUnreachable: the store could not be reached or read (outage).
	ReasonUnreachable Reason = "unreachable"
	// ReasonMalformed: the dataset exists but could not be decoded.
	ReasonMalformed Reason = "malformed"
	// ReasonCanceled: the caller stopped waiting before the load finished.
	// Never cached.
	ReasonCanceled Reason = "canceled"
)

// UnavailableError is the only error returned by Loader.Load.
type UnavailableError struct {
	Agency  models.Agency
	Country string
	Address string
	Reason  Reason
	Err     error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%s/%s unavailable (%s)", e.Agency, e.Country, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNotAvailable) hold for every UnavailableError.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrNotAvailable
}

// ReasonOf returns the reason of an *UnavailableError, or "" for other errors.
func ReasonOf(err error) Reason {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ""
}
