package eventloop

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// CreateListener builds a non-blocking IPv4 listening socket bound to
// port, with SO_REUSEADDR and (where supported) SO_REUSEPORT set, the Go
// analogue of create_server_socket in the reference implementation.
func CreateListener(port int, backlog int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, fmt.Errorf("eventloop: socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: setsockopt SO_REUSEADDR: %w", err)
	}
	// SO_REUSEPORT is not universally available; a failure here is not
	// fatal, matching the reference's best-effort intent for portability
	// even though it ORs both options into one setsockopt call.
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)

	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: bind: %w", err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("eventloop: listen: %w", err)
	}

	return fd, nil
}
