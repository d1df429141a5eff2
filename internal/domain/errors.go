package domain

import "errors"

var (
	ErrBusNotFound      = errors.New("bus not found")
	ErrIncidentNotFound = errors.New("incident not found")
)
