package response

import (
	"sync"
)

// bufferPool hands out zero-length byte slices to serialize responses into
type bufferPool struct {
	pool sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{pool: sync.Pool{
		New: func() interface{} { return make([]byte, 0) },
	}}
}

func (b *bufferPool) Get() []byte {
	return b.pool.Get().([]byte)
}

func (b *bufferPool) Put(buf []byte) {
	b.pool.Put(buf[:0])
}
