package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired is returned when the gateway rejects the request
	// with 401, meaning the user has to (re)connect the provider.
	ErrAuthRequired = errors.New("gateway authentication required")

	// ErrGatewayUnavailable is returned when the gateway stayed
	// unavailable after the configured retries.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
)

// GatewayError carries the status and detail of a failed gateway call.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("gateway returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Detail)
}
