// Package netx holds small networking helpers shared by the client.
package netx

import (
	"context"
	"errors"
	"net"
)

// IsUnavailable reports whether err came from the transport (refused
// connection, DNS failure, timeout) rather than from a server response.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
