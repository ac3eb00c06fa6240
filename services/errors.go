// services/errors.go - Service error taxonomy
package services

import "errors"

// Sentinel errors returned by the services. Handlers map these onto HTTP
// statuses with errors.Is; everything else is a storage fault and surfaces
// as a generic 500.
//
// A wrong completion code is NOT an error - it is a normal game outcome and
// comes back as a FAILURE submission result.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
)
