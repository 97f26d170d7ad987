package httpserve

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/reshadowking/webcache/cache"
)

// socketPair returns two connected unix-domain sockets, one wrapped as
// the raw fd HandleConnection expects (the client side as seen by the
// server), the other as a net.Conn a test can read/write through.
func socketPair(t *testing.T) (serverFD int, clientConn net.Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	f := os.NewFile(uintptr(fds[1]), "client")
	conn, err := net.FileConn(f)
	if err != nil {
		t.Fatalf("FileConn: %v", err)
	}
	f.Close()
	return fds[0], conn
}

func TestHandleConnection_CacheHit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)
	if err := c.Put(dir+"/index.html", []byte("hello from cache")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	serverFD, conn := socketPair(t)
	defer conn.Close()

	counters := &Counters{}
	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, counters, nil)
		close(done)
	}()

	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp := string(buf[:n])

	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK") {
		t.Fatalf("expected 200 OK, got: %q", resp)
	}
	if !strings.Contains(resp, "hello from cache") {
		t.Fatalf("expected cached body in response, got: %q", resp)
	}

	<-done
	if got := counters.Snapshot(); got.TotalRequests != 1 || got.CacheHits != 1 {
		t.Fatalf("expected 1 request and 1 cache hit, got %+v", got)
	}
}

func TestHandleConnection_CacheMissReadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "page.html"), []byte("<p>disk body</p>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)

	serverFD, conn := socketPair(t)
	defer conn.Close()

	counters := &Counters{}
	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, counters, nil)
		close(done)
	}()

	if _, err := conn.Write([]byte("GET /page.html HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	resp := string(buf[:n])
	if !strings.Contains(resp, "disk body") {
		t.Fatalf("expected disk body in response, got: %q", resp)
	}

	<-done

	if v, ok := c.Get(filepath.Join(dir, "page.html")); !ok || string(v) != "<p>disk body</p>" {
		t.Fatalf("expected file to be cached after miss, ok=%v v=%q", ok, v)
	}
}

// A file at or above MaxCacheItemSize is always served via sendfile and
// never enters the cache, even though it's served successfully. sendfile
// requires a genuine socket as its destination, so this test uses a real
// TCP connection rather than socketPair's unix-domain pair.
func TestHandleConnection_OversizedFileUsesSendfileAndIsNotCached(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	body := bytes.Repeat([]byte("x"), MaxCacheItemSize)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := cache.New(1<<30, cache.LRU)
	t.Cleanup(c.Close)

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	conn, err := net.Dial("tcp4", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	accepted, err := ln.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer accepted.Close()

	serverFile, err := accepted.(*net.TCPConn).File()
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	serverFD := int(serverFile.Fd())
	// File returns a duplicate descriptor; close the original so the
	// handler's close of serverFD ends the connection and the client
	// sees EOF.
	accepted.Close()

	counters := &Counters{}
	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, counters, nil)
		close(done)
	}()

	if _, err := conn.Write([]byte("GET /big.bin HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var resp bytes.Buffer
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		resp.Write(buf[:n])
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("read response: %v", err)
		}
	}

	if !bytes.HasPrefix(resp.Bytes(), []byte("HTTP/1.1 200 OK")) {
		t.Fatalf("expected 200 OK, got prefix: %q", resp.Bytes()[:64])
	}
	if resp.Len() < MaxCacheItemSize {
		t.Fatalf("expected full file served, got %d bytes", resp.Len())
	}

	<-done

	if snap := counters.Snapshot(); snap.SendfileUsed != 1 {
		t.Fatalf("expected SendfileUsed=1, got %+v", snap)
	}
	if _, ok := c.Get(path); ok {
		t.Fatal("oversized file must not be cached")
	}
}

func TestHandleConnection_NotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)

	serverFD, conn := socketPair(t)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, nil, nil)
		close(done)
	}()

	conn.Write([]byte("GET /missing.html HTTP/1.1\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "HTTP/1.1 404") {
		t.Fatalf("expected 404, got: %q", string(buf[:n]))
	}
	<-done
}

func TestHandleConnection_PathTraversalForbidden(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)

	serverFD, conn := socketPair(t)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, nil, nil)
		close(done)
	}()

	conn.Write([]byte("GET /../etc/passwd HTTP/1.1\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "HTTP/1.1 403") {
		t.Fatalf("expected 403, got: %q", string(buf[:n]))
	}
	<-done
}

func TestHandleConnection_NonGetNotImplemented(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)

	serverFD, conn := socketPair(t)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, nil, nil)
		close(done)
	}()

	conn.Write([]byte("POST /page.html HTTP/1.1\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "HTTP/1.1 501") {
		t.Fatalf("expected 501, got: %q", string(buf[:n]))
	}
	<-done
}

func TestHandleConnection_MalformedRequestBadRequest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := cache.New(1<<20, cache.LRU)
	t.Cleanup(c.Close)

	serverFD, conn := socketPair(t)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		HandleConnection(serverFD, dir, c, nil, nil)
		close(done)
	}()

	conn.Write([]byte("GARBAGE\r\n\r\n"))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasPrefix(string(buf[:n]), "HTTP/1.1 400") {
		t.Fatalf("expected 400, got: %q", string(buf[:n]))
	}
	<-done
}
