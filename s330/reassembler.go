package s330

// Reassembler rebuilds complete SysEx frames from raw transport
// chunks. MIDI backends deliver SysEx input split at arbitrary
// boundaries, so a frame may arrive whole in one chunk or spread
// across many.
//
// A Reassembler holds buffering state for one logical port and must
// not be shared between ports.
type Reassembler struct {
	emit      func(frame []byte)
	buf       []byte
	receiving bool
	maxSize   int
}

// NewReassembler returns a Reassembler that calls emit with each
// completed frame. The emitted slice is owned by the callee.
func NewReassembler(emit func(frame []byte)) *Reassembler {
	return &Reassembler{emit: emit}
}

// SetMaxFrameSize bounds the in-progress buffer. A partial frame that
// grows past n bytes is discarded and reassembly resynchronizes on
// the next start marker. Zero means unbounded.
func (r *Reassembler) SetMaxFrameSize(n int) {
	r.maxSize = n
}

// Feed consumes one raw transport chunk.
//
// While idle, a chunk not starting with the start marker is not SysEx
// traffic and is ignored. While receiving, a chunk that starts with a
// fresh start marker means the previous frame's end marker was lost;
// the partial buffer is discarded and reassembly restarts from the
// new chunk.
func (r *Reassembler) Feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	if chunk[0] == sysExStart {
		r.buf = r.buf[:0]
		r.receiving = true
	} else if !r.receiving {
		return
	}
	r.buf = append(r.buf, chunk...)
	if r.maxSize > 0 && len(r.buf) > r.maxSize {
		r.buf = r.buf[:0]
		r.receiving = false
		return
	}
	if r.buf[len(r.buf)-1] != sysExEnd {
		return
	}
	frame := make([]byte, len(r.buf))
	copy(frame, r.buf)
	r.buf = r.buf[:0]
	r.receiving = false
	r.emit(frame)
}
