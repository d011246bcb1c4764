package tcp

import (
	"sync"

	"github.com/nrfgo/tcbstack/internal"
)

// BufferPool is the fixed-count ring of receive buffers leased to TCBs on
// open and returned on close. Each slot is an internal.Ring, a wrap-aware
// byte buffer leased to one connection at a time.
type BufferPool struct {
	mu    sync.Mutex
	slots []internal.Ring
	free  []bool
}

// NewBufferPool constructs a pool of count buffers, each bufSize bytes.
func NewBufferPool(count, bufSize int) *BufferPool {
	p := &BufferPool{
		slots: make([]internal.Ring, count),
		free:  make([]bool, count),
	}
	for i := range p.slots {
		p.slots[i].Buf = make([]byte, bufSize)
		p.free[i] = true
	}
	return p
}

// Lease reserves one slot and returns its index and backing Ring. ok is
// false if the pool is exhausted ("exhaustion fails open with
// NO_BUFFER").
func (p *BufferPool) Lease() (idx int, buf *internal.Ring, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, f := range p.free {
		if f {
			p.free[i] = false
			p.slots[i].Reset()
			return i, &p.slots[i], true
		}
	}
	return 0, nil, false
}

// Release returns slot idx to the pool, clearing any buffered data.
func (p *BufferPool) Release(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[idx].Reset()
	p.free[idx] = true
}
