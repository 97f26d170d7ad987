// Package control wires OS signals to runtime reconfiguration and
// graceful shutdown, the Go analogue of the reference implementation's
// signal_handler: SIGUSR1 toggles the cache's eviction algorithm,
// SIGUSR2 dumps a status report, and SIGINT/SIGTERM trigger shutdown.
package control

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reshadowking/webcache/cache"
	"github.com/reshadowking/webcache/httpserve"
	"github.com/reshadowking/webcache/internal/logging"
)

// Server is the subset of server state control needs: the cache to
// reconfigure and introspect, the counters to report, and a cancel
// function that tells the rest of the server to stop.
type Server struct {
	Cache     *cache.Cache
	Counters  *httpserve.Counters
	Port      int
	Dir       string
	Log       *logging.Logger
	StartedAt time.Time
	Shutdown  func()
}

// Run blocks handling signals until either stop is closed, at which point
// it returns without calling srv.Shutdown, or a SIGINT/SIGTERM arrives,
// at which point it calls srv.Shutdown and returns.
func Run(srv *Server, stop <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-stop:
			return
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGINT, syscall.SIGTERM:
				logStatus(srv, "shutting down")
				srv.Shutdown()
				return
			case syscall.SIGUSR1:
				toggleAlgorithm(srv)
			case syscall.SIGUSR2:
				logStatus(srv, "status")
			}
		}
	}
}

func toggleAlgorithm(srv *Server) {
	current := srv.Cache.Stats().Algorithm
	next := cache.LRU
	if current == cache.LRU {
		next = cache.LFU
	}
	srv.Cache.SetAlgorithm(next)
	if srv.Log != nil {
		srv.Log.Sugar().Infof("cache algorithm switched to %s", next)
	}
}

func logStatus(srv *Server, reason string) {
	st := srv.Cache.Stats()
	snap := srv.Counters.Snapshot()
	uptime := time.Since(srv.StartedAt)

	hitRate := 0.0
	if snap.TotalRequests > 0 {
		hitRate = float64(snap.CacheHits) / float64(snap.TotalRequests) * 100
	}

	report := fmt.Sprintf(
		"server status (%s): uptime=%s port=%d dir=%s algorithm=%s cache=%d/%dMB items=%d requests=%d hits=%d hit_rate=%.2f%% sendfile=%d",
		reason, uptime.Round(time.Second), srv.Port, srv.Dir, st.Algorithm,
		st.Size/(1024*1024), st.MaxSize/(1024*1024), st.Count,
		snap.TotalRequests, snap.CacheHits, hitRate, snap.SendfileUsed,
	)

	if srv.Log != nil {
		srv.Log.Sugar().Info(report)
	}
}
