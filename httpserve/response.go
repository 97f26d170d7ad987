package httpserve

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/reshadowking/webcache/internal/mimetype"
)

var statusText = map[int]string{
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	501: "Not Implemented",
}

// writeErrorResponse writes a minimal HTML error page matching the
// reference implementation's send_error_response format.
func writeErrorResponse(fd int, code int) {
	message := statusText[code]
	if message == "" {
		message = "Error"
	}
	body := fmt.Sprintf("<html><body><h1>%d %s</h1></body></html>", code, message)
	head := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\nContent-Type: text/html\r\nConnection: close\r\n\r\n%s",
		code, message, body,
	)
	unix.Write(fd, []byte(head))
}

// writeResponseHeader writes the success response header matching the
// reference implementation's send_file_response format. It does not
// write the body; callers write the body separately (directly or via
// sendfile).
func writeResponseHeader(fd int, path string, size int64) {
	contentType := mimetype.ForPath(path)
	date := time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")

	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\n"+
			"Content-Type: %s\r\n"+
			"Content-Length: %d\r\n"+
			"Connection: keep-alive\r\n"+
			"Date: %s\r\n"+
			"Server: MyWebServer/1.0\r\n"+
			"\r\n",
		contentType, size, date,
	)
	unix.Write(fd, []byte(header))
}
