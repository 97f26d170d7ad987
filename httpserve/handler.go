// Package httpserve implements the per-connection request handler: parse
// the request line, resolve the path, consult the cache, serve from
// cache or disk, and close the socket after exactly one response.
package httpserve

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/reshadowking/webcache/cache"
	"github.com/reshadowking/webcache/internal/logging"
	"github.com/reshadowking/webcache/internal/sendfile"
)

// MaxCacheItemSize is the largest file this handler will read fully into
// memory and hand to the cache; larger files are always served directly
// from disk via sendfile.
const MaxCacheItemSize = 10 * 1024 * 1024

const bufferSize = 8196

// diskReads coalesces concurrent cache-miss reads of the same file: a
// thundering herd of requests for one not-yet-cached path triggers a
// single disk read, not one per request.
var diskReads diskReadGroup

// HandleConnection is the task body the event loop submits to the
// worker pool for one readable client socket. It reads and serves
// exactly one request, then closes fd regardless of outcome.
func HandleConnection(fd int, documentRoot string, c *cache.Cache, counters *Counters, log *logging.Logger) {
	defer unix.Close(fd)

	buf := make([]byte, bufferSize)
	n, err := unix.Read(fd, buf[:bufferSize-1])
	if err != nil || n <= 0 {
		return
	}

	if counters != nil {
		counters.TotalRequests.Add(1)
	}

	method, path, ok := parseRequestLine(buf[:n])
	if !ok {
		writeErrorResponse(fd, 400)
		return
	}
	if !strings.EqualFold(method, "GET") {
		writeErrorResponse(fd, 501)
		return
	}
	if strings.Contains(path, "..") {
		writeErrorResponse(fd, 403)
		return
	}

	filePath := resolvePath(documentRoot, path)

	if data, ok := c.Get(filePath); ok {
		if counters != nil {
			counters.CacheHits.Add(1)
		}
		serveBytes(fd, filePath, data)
		return
	}

	serveFromDisk(fd, filePath, c, counters, log)
}

// parseRequestLine tokenizes an HTTP request line into method and path,
// applying the reference implementation's length limits (method <= 15,
// path <= 255, protocol <= 15 bytes) and requiring at least three tokens
// (any tokens after the third are ignored).
func parseRequestLine(request []byte) (method, path string, ok bool) {
	line := string(request)
	if idx := strings.IndexAny(line, "\r\n"); idx >= 0 {
		line = line[:idx]
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return "", "", false
	}
	method, path, protocol := fields[0], fields[1], fields[2]
	if len(method) > 15 || len(path) > 255 || len(protocol) > 15 {
		return "", "", false
	}
	return method, path, true
}

func resolvePath(documentRoot, path string) string {
	if path == "/" {
		return documentRoot + "/index.html"
	}
	return documentRoot + path
}

func serveBytes(fd int, path string, data []byte) {
	writeResponseHeader(fd, path, int64(len(data)))
	unix.Write(fd, data)
}

// serveFromDisk handles a cache miss: files under MaxCacheItemSize are
// read fully, cached, and served from the read bytes; larger files are
// served directly from disk via sendfile without ever residing in the
// cache.
func serveFromDisk(fd int, filePath string, c *cache.Cache, counters *Counters, log *logging.Logger) {
	f, err := os.Open(filePath)
	if err != nil {
		writeErrorResponse(fd, 404)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeErrorResponse(fd, 500)
		return
	}
	size := info.Size()

	// Files at or above MaxCacheItemSize are never cached; they are
	// always larger than sendfile.Threshold, so they always qualify for
	// zero-copy transfer.
	if size >= MaxCacheItemSize {
		writeResponseHeader(fd, filePath, size)
		if _, err := sendfile.Transfer(fd, int(f.Fd()), size); err != nil && log != nil {
			log.Sugar().Warnf("sendfile %s: %v", filePath, err)
		}
		if counters != nil {
			counters.SendfileUsed.Add(1)
		}
		return
	}

	data, err := diskReads.load(filePath, func() ([]byte, error) {
		data := make([]byte, size)
		if _, err := f.Read(data); err != nil {
			return nil, err
		}
		if putErr := c.Put(filePath, data); putErr != nil && log != nil {
			log.Sugar().Warnf("cache put %s: %v", filePath, putErr)
		}
		return data, nil
	})
	if err != nil {
		writeErrorResponse(fd, 500)
		return
	}

	serveBytes(fd, filePath, data)
}
