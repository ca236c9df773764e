package storage

import "sync"

// MaxLineBytes bounds a single record line when stream-parsing session
// logs. Tool results can be large.
const MaxLineBytes = 10 * 1024 * 1024

// scannerBufPool recycles buffers for bufio.Scanner to reduce allocations
// across repeated session scans.
var scannerBufPool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 1024*1024)
	},
}

// GetScannerBuffer borrows a scanner buffer from the shared pool.
func GetScannerBuffer() []byte {
	return scannerBufPool.Get().([]byte)
}

// PutScannerBuffer returns a buffer to the shared pool.
func PutScannerBuffer(buf []byte) {
	scannerBufPool.Put(buf)
}
