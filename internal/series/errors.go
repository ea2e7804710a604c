package series

import (
	"errors"
	"fmt"
)

// DataErrorKind classifies ingestion failures
type DataErrorKind int

const (
	// DataNotFound means the provider does not know the ticker
	DataNotFound DataErrorKind = iota
	// DataRateLimited means the provider throttled the request
	DataRateLimited
	// DataMalformed means the payload carried neither metadata nor rows
	DataMalformed
)

// String returns a short label for the kind
func (k DataErrorKind) String() string {
	switch k {
	case DataNotFound:
		return "not_found"
	case DataRateLimited:
		return "rate_limited"
	case DataMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// DataError is a classified failure from payload ingestion
type DataError struct {
	Kind    DataErrorKind
	Symbol  string
	Message string
}

func (e *DataError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("series %s: %s", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("series %s: %s: %s", e.Symbol, e.Kind, e.Message)
}

// IsRateLimited reports whether err is a provider throttle error
func IsRateLimited(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == DataRateLimited
}

// IsNotFound reports whether err is an unknown-ticker error
func IsNotFound(err error) bool {
	var de *DataError
	return errors.As(err, &de) && de.Kind == DataNotFound
}

// ErrNoCandidate is returned by the picker when no trading date falls
// within the eligibility window.
var ErrNoCandidate = errors.New("no eligible start date in lookback window")
