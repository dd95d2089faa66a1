package api

import (
	"fmt"

	"safevision-console/internal/schema"
)

// FailureKind classifies an API failure.
type FailureKind string

const (
	// FailureTransport covers network and connection level failures where no
	// usable server response exists.
	FailureTransport FailureKind = "transport"
	// FailureServer covers non-2xx responses without a structured error body.
	FailureServer FailureKind = "server"
	// FailureValidation covers HTTP 422 responses with a decodable structured
	// error body.
	FailureValidation FailureKind = "validation"
	// FailureDecode covers 2xx responses whose body does not match the
	// expected schema. Callers treat it like a transport-level failure since
	// the result is unusable either way.
	FailureDecode FailureKind = "decode"
	// FailureMapping covers client-side failures that never reach the
	// network, such as a condition type with no server equivalent.
	FailureMapping FailureKind = "mapping"
)

// noContentMsg is reported when a 422 body carries an empty detail list.
const noContentMsg = "no content"

// Failure is a classified API failure. Detail is set for validation failures
// only; StatusCode is zero when no server response was received.
type Failure struct {
	Kind       FailureKind
	StatusCode int
	Detail     *schema.APIErrorDetail
	Err        error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureValidation && f.Detail != nil:
		return fmt.Sprintf("validation failed: %s", f.Detail.Msg)
	case f.StatusCode > 0 && f.Err != nil:
		return fmt.Sprintf("%s failure (status %d): %v", f.Kind, f.StatusCode, f.Err)
	case f.StatusCode > 0:
		return fmt.Sprintf("%s failure (status %d)", f.Kind, f.StatusCode)
	case f.Err != nil:
		return fmt.Sprintf("%s failure: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%s failure", f.Kind)
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify turns a raw outcome into a typed failure. It is pure: it inspects
// only its arguments. A 422 status with a parseable structured body becomes a
// validation failure carrying the first detail entry; everything else becomes
// a generic failure carrying the original cause and, when present, the
// status code. Decode failures of the 422 body itself are swallowed and the
// original cause is surfaced.
func Classify(cause error, statusCode int, body []byte) *Failure {
	if statusCode == 422 && len(body) > 0 {
		if apiErr, err := schema.DecodeAPIError(body); err == nil {
			detail := apiErr.First(noContentMsg)
			return &Failure{
				Kind:       FailureValidation,
				StatusCode: statusCode,
				Detail:     &detail,
				Err:        cause,
			}
		}
	}

	kind := FailureTransport
	if statusCode > 0 {
		kind = FailureServer
	}
	return &Failure{Kind: kind, StatusCode: statusCode, Err: cause}
}

// DecodeFailure wraps a body-decode error on an otherwise successful
// response.
func DecodeFailure(err error) *Failure {
	return &Failure{Kind: FailureDecode, Err: err}
}

// MappingFailure reports a client-side translation gap. It never corresponds
// to a network exchange.
func MappingFailure(err error) *Failure {
	return &Failure{Kind: FailureMapping, Err: err}
}
