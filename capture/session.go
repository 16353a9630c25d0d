package capture

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ardnew/usbmic/hal"
	"github.com/ardnew/usbmic/pkg"
)

// DefaultInterval is the full-speed isochronous service interval.
const DefaultInterval = time.Millisecond

// VolumeRange holds the volume control attributes reported by GET_MIN,
// GET_MAX and GET_RES, in 1/256 dB steps as the audio class defines them.
type VolumeRange struct {
	Min int16
	Max int16
	Res int16
}

// DefaultVolumeRange is -48 dB to 0 dB in 1 dB steps.
var DefaultVolumeRange = VolumeRange{Min: -48 * 256, Max: 0, Res: 256}

// Config describes a capture session.
type Config struct {
	Formats     FormatTable
	FeatureUnit uint8         // Recognized feature unit ID
	Interval    time.Duration // Isochronous interval; DefaultInterval if zero
	Volume      VolumeRange   // DefaultVolumeRange if zero
}

// Stats holds session counters.
type Stats struct {
	Packets  uint64 // Packets handed to the transport
	Fills    uint64 // Buffers filled from the source
	Silenced uint64 // Packets replaced by silence while muted
}

// Session is the capture context shared by the feed and control entry
// points. OnFeedInterval runs on the transport's isochronous cadence and is
// never called concurrently with itself; OnControlEvent runs on the control
// context and may overlap with it.
//
// Each piece of shared state has a single writer: the control context owns
// mute and format selection, the feed context owns the buffers. The
// recording state is shared and changes only by compare-and-swap.
type Session struct {
	id  uuid.UUID
	cfg Config

	src hal.SampleSource
	ch  hal.ChannelController

	pool *BufferPool
	gate *MuteGate
	rec  recorder

	format atomic.Uint32

	packets  atomic.Uint64
	fills    atomic.Uint64
	silenced atomic.Uint64
}

// NewSession creates an idle session. The packet size is fixed for the
// session lifetime and sized for the highest rate in the format table.
func NewSession(cfg Config, src hal.SampleSource, ch hal.ChannelController) (*Session, error) {
	if src == nil || ch == nil || cfg.FeatureUnit == 0 {
		return nil, pkg.ErrInvalidParameter
	}
	if cfg.Formats.Len() == 0 {
		return nil, pkg.ErrInvalidFormat
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Volume == (VolumeRange{}) {
		cfg.Volume = DefaultVolumeRange
	}
	if cfg.Volume.Min > cfg.Volume.Max || cfg.Volume.Res <= 0 {
		return nil, pkg.ErrInvalidParameter
	}

	pool, err := NewBufferPool(FramesPerInterval(cfg.Formats.MaxSampleRate(), cfg.Interval))
	if err != nil {
		return nil, err
	}
	if err := cfg.Formats.CheckInterval(cfg.Interval); err != nil {
		return nil, err
	}

	s := &Session{
		id:   uuid.New(),
		cfg:  cfg,
		src:  src,
		ch:   ch,
		pool: pool,
		gate: NewMuteGate(pool.PacketSize()),
	}

	pkg.LogDebug(pkg.ComponentSession, "session created",
		"id", s.id.String(),
		"formats", cfg.Formats.Len(),
		"frames", pool.Frames(),
		"packetSize", pool.PacketSize())

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Config returns the session configuration with defaults applied.
func (s *Session) Config() Config {
	return s.cfg
}

// State returns the recording state.
func (s *Session) State() State {
	return s.rec.load()
}

// Muted reports the mute state.
func (s *Session) Muted() bool {
	return s.gate.Muted()
}

// FormatIndex returns the selected format index.
func (s *Session) FormatIndex() int {
	return int(s.format.Load())
}

// Format returns the selected format.
func (s *Session) Format() Format {
	return s.cfg.Formats.At(s.FormatIndex())
}

// PacketSize returns the fixed byte length of every packet.
func (s *Session) PacketSize() int {
	return s.pool.PacketSize()
}

// Frames returns the number of stereo frames in every packet.
func (s *Session) Frames() int {
	return s.pool.Frames()
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Packets:  s.packets.Load(),
		Fills:    s.fills.Load(),
		Silenced: s.silenced.Load(),
	}
}

// OnFeedInterval is called once per isochronous interval and returns the
// packet for the upcoming interval. ok is false while idle, in which case
// the transport sends nothing from this session.
//
// The returned slice aliases session memory and is valid until the next
// call.
func (s *Session) OnFeedInterval() (packet []byte, ok bool) {
	switch s.rec.load() {
	case StateStartRequested:
		if !s.rec.begin() {
			return nil, false
		}
		s.pool.Reset()
		s.ch.ActivateChannels()
		// A stop that lands between begin and activation found the
		// channels still off; switch them off again on its behalf.
		if s.rec.load() != StateRecording {
			s.ch.DeactivateChannels()
			return nil, false
		}
		// First hand-off is the cleared buffer.
		return s.expose(s.pool.Current()), true

	case StateRecording:
		s.pool.Toggle()
		s.pool.Fill(s.src)
		s.fills.Add(1)
		return s.expose(s.pool.Current()), true

	default:
		return nil, false
	}
}

func (s *Session) expose(filled []byte) []byte {
	packet, muted := s.gate.Expose(filled)
	s.packets.Add(1)
	if muted {
		s.silenced.Add(1)
	}
	return packet
}

// Reset returns the session to Idle at the end of an attach lifecycle. Unlike
// a record stop it also drops a start the feed has not picked up yet, so a
// later attach begins idle. The channels are off when Reset returns.
func (s *Session) Reset() {
	if s.rec.reset() != StateIdle {
		s.ch.DeactivateChannels()
	}
}

// start requests recording. Ignored unless idle.
func (s *Session) start() {
	s.rec.requestStart()
}

// stop ends recording and switches the channels off before returning.
// Ignored unless recording.
func (s *Session) stop() {
	if s.rec.stop() {
		s.ch.DeactivateChannels()
	}
}
