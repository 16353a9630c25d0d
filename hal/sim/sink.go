package sim

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ardnew/usbmic/pkg"
)

// Sample layout of the packets written to the sinks.
const (
	sinkChannels  = 2
	sinkBitDepth  = 16
	sinkWordBytes = sinkBitDepth / 8

	wavFormatPCM = 1
)

// RawSink writes packets unchanged: interleaved 16-bit little-endian stereo.
type RawSink struct {
	w     io.Writer
	bytes atomic.Uint64
}

// NewRawSink creates a sink writing to w.
func NewRawSink(w io.Writer) *RawSink {
	return &RawSink{w: w}
}

// WritePacket writes packet to the underlying writer.
func (s *RawSink) WritePacket(_ uint64, packet []byte) error {
	n, err := s.w.Write(packet)
	s.bytes.Add(uint64(n))
	return err
}

// Bytes returns the number of bytes written.
func (s *RawSink) Bytes() uint64 {
	return s.bytes.Load()
}

// Close is a no-op; the caller owns the writer.
func (s *RawSink) Close() error {
	return nil
}

// WAVSink encodes packets into a 16-bit stereo PCM WAV stream.
type WAVSink struct {
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames atomic.Uint64
}

// NewWAVSink creates a sink encoding to w at sampleRate. The header is
// finalized by Close.
func NewWAVSink(w io.WriteSeeker, sampleRate uint32) (*WAVSink, error) {
	if w == nil || sampleRate == 0 {
		return nil, pkg.ErrInvalidParameter
	}
	return &WAVSink{
		enc: wav.NewEncoder(w, int(sampleRate), sinkBitDepth, sinkChannels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: sinkChannels,
				SampleRate:  int(sampleRate),
			},
			SourceBitDepth: sinkBitDepth,
		},
	}, nil
}

// WritePacket decodes the packet's samples and appends them to the stream.
func (s *WAVSink) WritePacket(interval uint64, packet []byte) error {
	if len(packet)%(sinkChannels*sinkWordBytes) != 0 {
		return fmt.Errorf("interval %d: packet of %d bytes: %w", interval, len(packet), pkg.ErrInvalidFormat)
	}

	words := len(packet) / sinkWordBytes
	if cap(s.buf.Data) < words {
		s.buf.Data = make([]int, words)
	}
	s.buf.Data = s.buf.Data[:words]
	for i := range s.buf.Data {
		s.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(packet[i*sinkWordBytes:])))
	}

	if err := s.enc.Write(s.buf); err != nil {
		return err
	}
	s.frames.Add(uint64(words / sinkChannels))
	return nil
}

// Frames returns the number of stereo frames written.
func (s *WAVSink) Frames() uint64 {
	return s.frames.Load()
}

// Close finalizes the WAV header. It does not close the underlying writer.
func (s *WAVSink) Close() error {
	if s.frames.Load() == 0 {
		// The header is written with the first samples.
		s.buf.Data = s.buf.Data[:0]
		if err := s.enc.Write(s.buf); err != nil {
			return err
		}
	}
	return s.enc.Close()
}

// DiscardSink drops every packet.
type DiscardSink struct{}

// WritePacket does nothing.
func (DiscardSink) WritePacket(uint64, []byte) error {
	return nil
}
