package ogg

import (
	"sync"
	"sync/atomic"
)

// pageBuffer holds one page body. The framer keeps a reference while the
// page is resident and every packet that slices into the body keeps one
// more; dropping the last reference hands the buffer back to its pool.
type pageBuffer struct {
	data []byte
	refs atomic.Int32
	pool *bufferPool
}

func (b *pageBuffer) retain() {
	b.refs.Add(1)
}

func (b *pageBuffer) release() {
	switch n := b.refs.Add(-1); {
	case n == 0:
		b.pool.put(b)
	case n < 0:
		panic("ogg: page buffer released more times than retained")
	}
}

// bufferPool recycles page bodies between pages.
type bufferPool struct {
	free sync.Pool
	live atomic.Int64 // buffers handed out and not yet returned
}

func (p *bufferPool) get(n int) *pageBuffer {
	b, _ := p.free.Get().(*pageBuffer)
	if b == nil {
		b = &pageBuffer{pool: p}
	}
	if cap(b.data) < n {
		b.data = make([]byte, n)
	}
	b.data = b.data[:n]
	b.refs.Store(1)
	p.live.Add(1)
	return b
}

func (p *bufferPool) put(b *pageBuffer) {
	p.live.Add(-1)
	p.free.Put(b)
}

// Live returns the number of page buffers currently referenced.
func (f *Framer) Live() int64 {
	return f.pool.live.Load()
}
