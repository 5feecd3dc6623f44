package parquet

import "sync"

// bufferPool is the process-wide pool of page-sized byte buffers shared by
// column chunk readers and writers. Buffers move through well defined
// rent/release cycles: a page rents a buffer to hold its raw or decompressed
// bytes and releases it once the values have been decoded.
var bufferPool = &bytesPool{}

type bytesPool struct{ pool sync.Pool }

func (p *bytesPool) get(size int) []byte {
	b, _ := p.pool.Get().(*[]byte)
	if b == nil || cap(*b) < size {
		buf := make([]byte, size)
		return buf
	}
	return (*b)[:size]
}

func (p *bytesPool) put(b []byte) {
	if b != nil {
		p.pool.Put(&b)
	}
}
