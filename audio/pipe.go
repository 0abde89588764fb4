package audio

import "sync"

// seconds of pending audio kept per source before the oldest bytes are dropped
const pipeSeconds = 2

// pipe turns push-style device callbacks into the blocking Read of Source.
// Writes never block: when the reader falls more than limit bytes behind,
// the oldest bytes are dropped and counted. A waiting read larger than limit
// raises the bound to its own size so it can always complete.
type pipe struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	limit   int
	want    int // size of the read currently waiting, 0 if none
	closed  bool
	dropped int
}

// pipeLimit is the bound a backend gives its pipe: pipeSeconds of audio, and
// never less than two reads.
func pipeLimit(bytesPerSecond, readSize int) int {
	return max(bytesPerSecond*pipeSeconds, 2*readSize)
}

func newPipe(limit int) *pipe {
	p := &pipe{limit: limit}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipe) write(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(data) == 0 {
		return
	}
	p.buf = append(p.buf, data...)
	limit := max(p.limit, p.want)
	if over := len(p.buf) - limit; p.limit > 0 && over > 0 {
		p.dropped += over
		p.buf = append(p.buf[:0], p.buf[over:]...)
	}
	p.cond.Broadcast()
}

// read fills dst completely unless the pipe is closed first. A closed pipe
// with nothing buffered reports ErrInvalidOperation.
func (p *pipe) read(dst []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.want = len(dst)
	for len(p.buf) < len(dst) && !p.closed {
		p.cond.Wait()
	}
	p.want = 0
	if len(p.buf) == 0 {
		return 0, ErrInvalidOperation
	}
	n := copy(dst, p.buf)
	p.buf = append(p.buf[:0], p.buf[n:]...)
	return n, nil
}

func (p *pipe) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *pipe) reset() {
	p.mu.Lock()
	p.buf = p.buf[:0]
	p.closed = false
	p.dropped = 0
	p.mu.Unlock()
}

func (p *pipe) droppedBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}
