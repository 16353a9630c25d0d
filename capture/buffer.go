package capture

import (
	"encoding/binary"

	"github.com/ardnew/usbmic/hal"
	"github.com/ardnew/usbmic/pkg"
)

// Frame layout of a capture buffer.
const (
	ChannelsPerFrame = 2 // Interleaved left, right
	WordSize         = 2 // 16-bit PCM, little-endian
	FrameSize        = ChannelsPerFrame * WordSize
)

// BufferPool owns the two capture buffers of a session and alternates them
// between the fill path and the transport.
//
// At any time one buffer is current (last filled, handed to the transport)
// and the other is free to be filled next. Toggle flips the roles. The
// buffers are allocated once and never resized.
type BufferPool struct {
	bufs    [2][]byte
	current int
	frames  int
}

// NewBufferPool allocates both buffers for frames stereo frames each.
func NewBufferPool(frames int) (*BufferPool, error) {
	if frames < 1 {
		return nil, pkg.ErrInvalidParameter
	}
	size := frames * FrameSize
	p := &BufferPool{frames: frames}
	p.bufs[0] = make([]byte, size)
	p.bufs[1] = make([]byte, size)
	return p, nil
}

// Frames returns the number of stereo frames per buffer.
func (p *BufferPool) Frames() int {
	return p.frames
}

// PacketSize returns the fixed byte length of each buffer.
func (p *BufferPool) PacketSize() int {
	return len(p.bufs[0])
}

// Reset zero-clears both buffers and makes buffer 0 current.
func (p *BufferPool) Reset() {
	clear(p.bufs[0])
	clear(p.bufs[1])
	p.current = 0
}

// Toggle makes the buffer not used last time current.
func (p *BufferPool) Toggle() {
	p.current ^= 1
}

// Fill reads one interval of samples from src into the current buffer: for
// each frame one left word then one right word, stored interleaved.
func (p *BufferPool) Fill(src hal.SampleSource) {
	b := p.bufs[p.current]
	for off := 0; off < len(b); off += FrameSize {
		binary.LittleEndian.PutUint16(b[off:], uint16(src.ReadWord(hal.ChannelLeft)))
		binary.LittleEndian.PutUint16(b[off+WordSize:], uint16(src.ReadWord(hal.ChannelRight)))
	}
}

// Current returns the current buffer.
func (p *BufferPool) Current() []byte {
	return p.bufs[p.current]
}

// CurrentIndex returns which of the two buffers is current.
func (p *BufferPool) CurrentIndex() int {
	return p.current
}
