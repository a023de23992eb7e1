package transport

import (
	"errors"
	"net"
	"syscall"
)

// ErrUnreachable indicates the server could not be reached at all:
// connection refused, host or network unreachable, or name resolution
// failure.
var ErrUnreachable = errors.New("server unreachable")

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return false
}
