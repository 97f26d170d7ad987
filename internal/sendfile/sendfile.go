// Package sendfile wraps the sendfile(2) zero-copy file transfer syscall
// for serving large static files without copying their bytes through
// user space.
package sendfile

import "golang.org/x/sys/unix"

// Threshold is the minimum file size sendfile is used for; smaller files
// are cheaper to serve with a plain write, matching the reference
// implementation's 4 KiB cutoff.
const Threshold = 4096

// Transfer makes one sendfile(2) call asking for up to count bytes from
// srcFD (an open, seekable file) to dstFD (a socket), starting at offset
// 0, and returns the number of bytes the kernel sent. A short transfer
// is not retried.
func Transfer(dstFD, srcFD int, count int64) (int, error) {
	var offset int64
	return unix.Sendfile(dstFD, srcFD, &offset, int(count))
}
