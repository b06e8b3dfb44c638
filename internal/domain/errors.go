package domain

import "errors"

// Configuration errors. Callers passed an identifier or argument that no
// registry entry or contract accepts.
var (
	ErrUnknownCity    = errors.New("unknown city")
	ErrUnknownDisease = errors.New("unknown disease")
	ErrInvalidMonth   = errors.New("month index out of range 0-11")
	ErrInvalidHorizon = errors.New("horizon out of range 1-12")
)

// ErrMalformedPayload marks an external feed that cannot be loaded as-is.
var ErrMalformedPayload = errors.New("malformed payload")

// IsConfigError reports whether err stems from an unknown identifier or an
// out-of-range argument, as opposed to a malformed payload.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownCity) ||
		errors.Is(err, ErrUnknownDisease) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidHorizon)
}
