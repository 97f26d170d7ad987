// Package eventloop implements a single-goroutine, epoll-based,
// readiness-notification connection acceptor. It owns the listening
// socket, registers readable client sockets, and dispatches each one to
// a worker pool once readable.
package eventloop

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/reshadowking/webcache/cache"
	"github.com/reshadowking/webcache/httpserve"
	"github.com/reshadowking/webcache/internal/logging"
	"github.com/reshadowking/webcache/workerpool"
)

// MaxEvents bounds the epoll_wait batch size, matching the reference
// implementation's MAX_EVENTS.
const MaxEvents = 1024

// Loop owns an epoll instance and a listening socket and drives the
// accept/dispatch cycle.
type Loop struct {
	epollFD      int
	serverFD     int
	cache        *cache.Cache
	documentRoot string
	pool         *workerpool.Pool
	counters     *httpserve.Counters
	log          *logging.Logger
}

// New creates an epoll instance and registers serverFD, level-triggered,
// for read readiness.
func New(serverFD int, c *cache.Cache, documentRoot string, pool *workerpool.Pool, counters *httpserve.Counters, log *logging.Logger) (*Loop, error) {
	epollFD, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("eventloop: epoll_create1: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(serverFD)}
	if err := unix.EpollCtl(epollFD, unix.EPOLL_CTL_ADD, serverFD, &ev); err != nil {
		unix.Close(epollFD)
		return nil, fmt.Errorf("eventloop: epoll_ctl(server_fd): %w", err)
	}

	l := &Loop{
		epollFD:      epollFD,
		serverFD:     serverFD,
		cache:        c,
		documentRoot: documentRoot,
		pool:         pool,
		counters:     counters,
		log:          log,
	}
	return l, nil
}

// Run blocks in the accept/dispatch cycle until ctx is cancelled or
// EpollWait returns a non-retryable error. EINTR resumes the wait; ctx
// cancellation ends the loop and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	events := make([]unix.EpollEvent, MaxEvents)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		n, err := unix.EpollWait(l.epollFD, events, 250)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("eventloop: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == l.serverFD {
				l.acceptNew()
			} else {
				l.dispatch(fd)
			}
		}
	}
}

// acceptNew accepts exactly one pending connection per readiness
// notification on the listening socket, registers it edge-triggered
// for read readiness, and logs the peer address, matching
// handle_new_connection in the reference
// implementation. The listening socket is level-triggered, so a fuller
// backlog simply produces another readiness notification on the next
// epoll_wait rather than being drained in a loop here.
func (l *Loop) acceptNew() {
	fd, sa, err := unix.Accept4(l.serverFD, unix.SOCK_NONBLOCK)
	if err != nil {
		if !errors.Is(err, unix.EAGAIN) && l.log != nil {
			l.log.Sugar().Warnf("accept: %v", err)
		}
		return
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		unix.Close(fd)
		if l.log != nil {
			l.log.Sugar().Warnf("epoll_ctl(client_fd): %v", err)
		}
		return
	}

	if sa4, ok := sa.(*unix.SockaddrInet4); ok && l.log != nil {
		l.log.Sugar().Infof("new connection from %d.%d.%d.%d:%d",
			sa4.Addr[0], sa4.Addr[1], sa4.Addr[2], sa4.Addr[3], sa4.Port)
	}
}

// dispatch deregisters fd from epoll before submitting it to the worker
// pool. Deregistering first is load-bearing: without it, the next
// EpollWait call could report the same fd ready again while a worker is
// still reading from it, handing the fd to two goroutines at once.
func (l *Loop) dispatch(fd int) {
	unix.EpollCtl(l.epollFD, unix.EPOLL_CTL_DEL, fd, nil)

	documentRoot := l.documentRoot
	c := l.cache
	counters := l.counters
	log := l.log

	err := l.pool.Submit(workerpool.Task{
		FD: fd,
		Run: func() {
			httpserve.HandleConnection(fd, documentRoot, c, counters, log)
		},
	})
	if err != nil {
		unix.Close(fd)
		if l.log != nil {
			l.log.Sugar().Warnf("submit: %v", err)
		}
	}
}

// Close closes the epoll instance and the listening socket.
func (l *Loop) Close() error {
	if err := unix.Close(l.epollFD); err != nil {
		return fmt.Errorf("eventloop: close epoll fd: %w", err)
	}
	if err := unix.Close(l.serverFD); err != nil {
		return fmt.Errorf("eventloop: close server fd: %w", err)
	}
	return nil
}
