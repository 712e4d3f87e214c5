package network

import "errors"

// Configuration errors are detected while the network is being built and are
// never retried. Callers match them with errors.Is.
var (
	ErrDuplicateName     = errors.New("network: duplicate element name")
	ErrUnknownBus        = errors.New("network: unknown bus")
	ErrUnknownElement    = errors.New("network: unknown element")
	ErrInvalidBusType    = errors.New("network: invalid bus type")
	ErrSecondSlack       = errors.New("network: a slack bus is already designated")
	ErrInvalidConnection = errors.New("network: invalid transformer connection")
	ErrUnsupportedBundle = errors.New("network: unsupported conductor count in bundle")
	ErrInvalidParameter  = errors.New("network: invalid element parameter")
)
